package correlation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Matrix is an N×N symmetric matrix whose rows and columns share the Points
// index. It represents both the raw correlation matrix and its
// distance-filtered views.
type Matrix struct {
	Points   []domain.Point
	Values   *mat.SymDense
	Excluded []*domain.DegenerateSeriesError
}

// NewMatrix wraps values with their index. len(points) must equal the
// matrix dimension.
func NewMatrix(points []domain.Point, values *mat.SymDense) (*Matrix, error) {
	if values == nil {
		if len(points) != 0 {
			return nil, fmt.Errorf("%w: %d points with no values", domain.ErrShapeMismatch, len(points))
		}
		return &Matrix{}, nil
	}
	if n := values.SymmetricDim(); n != len(points) {
		return nil, fmt.Errorf("%w: %d points for a %dx%d matrix", domain.ErrShapeMismatch, len(points), n, n)
	}
	return &Matrix{Points: points, Values: values}, nil
}

// Len returns the number of indexed points.
func (m *Matrix) Len() int { return len(m.Points) }

// At returns the value for cell (i, j).
func (m *Matrix) At(i, j int) float64 { return m.Values.At(i, j) }

// Index returns the row of p.
func (m *Matrix) Index(p domain.Point) (int, bool) {
	i, ok := slices.BinarySearchFunc(m.Points, p, domain.Point.Compare)
	return i, ok
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		Points:   slices.Clone(m.Points),
		Excluded: slices.Clone(m.Excluded),
	}
	if m.Values != nil {
		out.Values = mat.NewSymDense(m.Values.SymmetricDim(), nil)
		out.Values.CopySym(m.Values)
	}
	return out
}

// Validate checks the index size and that every cell is finite and within
// [-1, 1]. With unitDiagonal set, every diagonal cell must equal 1.
func (m *Matrix) Validate(unitDiagonal bool) error {
	n := m.Len()
	if m.Values == nil {
		if n != 0 {
			return fmt.Errorf("%w: %d points with no values", domain.ErrShapeMismatch, n)
		}
		return nil
	}
	if d := m.Values.SymmetricDim(); d != n {
		return fmt.Errorf("%w: %d points for a %dx%d matrix", domain.ErrShapeMismatch, n, d, d)
	}
	if !slices.IsSortedFunc(m.Points, domain.Point.Compare) {
		return fmt.Errorf("correlation index is not sorted")
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.Values.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("cell (%d,%d) is not finite", i, j)
			}
			if v < -1 || v > 1 {
				return fmt.Errorf("cell (%d,%d) = %g outside [-1, 1]", i, j, v)
			}
		}
		if unitDiagonal && m.Values.At(i, i) != 1 {
			return fmt.Errorf("diagonal cell %d = %g, want 1", i, m.Values.At(i, i))
		}
	}
	return nil
}

// Build standardizes every series in ds and computes the pairwise Pearson
// correlation matrix. Degenerate series are excluded from the index and
// listed in Matrix.Excluded in index order.
func Build(ds domain.Dataset) (*Matrix, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("build correlation: %w", domain.ErrEmptyInput)
	}

	points := make([]domain.Point, 0, ds.Len())
	for p := range ds.Series {
		points = append(points, p)
	}
	slices.SortFunc(points, domain.Point.Compare)

	length := len(ds.Series[points[0]])
	kept := make([]domain.Point, 0, len(points))
	normalized := make([][]float64, 0, len(points))
	var excluded []*domain.DegenerateSeriesError

	for _, p := range points {
		x := ds.Series[p]
		if len(x) != length {
			return nil, fmt.Errorf("build correlation: %w: %s has %d samples, want %d",
				domain.ErrLengthMismatch, p, len(x), length)
		}
		z, err := Normalize(p, x)
		if err != nil {
			var degenerate *domain.DegenerateSeriesError
			if !errors.As(err, &degenerate) {
				return nil, fmt.Errorf("build correlation: %w", err)
			}
			excluded = append(excluded, degenerate)
			continue
		}
		kept = append(kept, p)
		normalized = append(normalized, z)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("build correlation: %w: all %d series are degenerate",
			domain.ErrEmptyInput, len(points))
	}

	n := len(kept)
	values := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		values.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			values.SetSym(i, j, pearson(normalized[i], normalized[j]))
		}
	}

	return &Matrix{Points: kept, Values: values, Excluded: excluded}, nil
}

// pearson returns the sample correlation of two standardized series,
// clamped to [-1, 1] against rounding.
func pearson(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}
