package correlation

import (
	"math"
	"testing"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var (
	ptA = domain.Point{Lat: 10, Lon: 20}
	ptB = domain.Point{Lat: 10, Lon: 21}
	ptC = domain.Point{Lat: 11, Lon: 20}
	ptD = domain.Point{Lat: 12, Lon: 22}
)

func dataset(series map[domain.Point][]float64) domain.Dataset {
	return domain.Dataset{Series: series}
}

func TestNormalize(t *testing.T) {
	z, err := Normalize(ptA, []float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)

	mean, std := stat.MeanStdDev(z, nil)
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)
}

func TestNormalize_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		reason string
	}{
		{"constant", []float64{3, 3, 3, 3}, "zero variance"},
		{"constant fraction", []float64{0.1, 0.1, 0.1, 0.1, 0.1}, "zero variance"},
		{"single sample", []float64{1}, "fewer than two samples"},
		{"empty", nil, "fewer than two samples"},
		{"nan", []float64{1, math.NaN(), 2}, "non-finite sample"},
		{"inf", []float64{1, math.Inf(-1), 2}, "non-finite sample"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(ptA, tt.series)
			require.ErrorIs(t, err, domain.ErrDegenerateSeries)

			var degenerate *domain.DegenerateSeriesError
			require.ErrorAs(t, err, &degenerate)
			assert.Equal(t, ptA, degenerate.Point)
			assert.Equal(t, tt.reason, degenerate.Reason)
		})
	}
}

func TestBuild_KnownCorrelations(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	m, err := Build(dataset(map[domain.Point][]float64{
		ptA: x,
		ptB: {3, 5, 7, 9, 11, 13},  // 2x+1
		ptC: {-1, -2, -3, -4, -5, -6}, // -x
	}))
	require.NoError(t, err)
	require.Equal(t, []domain.Point{ptA, ptB, ptC}, m.Points)

	assert.InDelta(t, 1, m.At(0, 1), 1e-12)
	assert.InDelta(t, -1, m.At(0, 2), 1e-12)
	assert.InDelta(t, -1, m.At(1, 2), 1e-12)
	assert.Empty(t, m.Excluded)
}

func TestBuild_MatchesPairwisePearson(t *testing.T) {
	series := map[domain.Point][]float64{
		ptA: {0.3, 1.2, -0.4, 2.2, 0.9, 1.1, -1.3},
		ptB: {1.0, 0.2, 0.5, 1.9, -0.2, 0.4, 0.0},
		ptC: {-2.1, 0.0, 0.7, 0.3, 1.5, -0.6, 0.8},
		ptD: {5, 4, 6, 2, 8, 1, 3},
	}
	m, err := Build(dataset(series))
	require.NoError(t, err)

	for i, p := range m.Points {
		for j, q := range m.Points {
			want := stat.Correlation(series[p], series[q], nil)
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, m.At(i, j), 1e-12, "cell (%d,%d)", i, j)
		}
	}
}

func TestBuild_Invariants(t *testing.T) {
	m, err := Build(dataset(map[domain.Point][]float64{
		ptA: {0.3, 1.2, -0.4, 2.2, 0.9},
		ptB: {1.0, 0.2, 0.5, 1.9, -0.2},
		ptC: {-2.1, 0.0, 0.7, 0.3, 1.5},
		ptD: {5, 4, 6, 2, 8},
	}))
	require.NoError(t, err)
	require.NoError(t, m.Validate(true))

	n := m.Len()
	for i := 0; i < n; i++ {
		assert.Equal(t, 1.0, m.At(i, i))
		for j := 0; j < n; j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			assert.GreaterOrEqual(t, m.At(i, j), -1.0)
			assert.LessOrEqual(t, m.At(i, j), 1.0)
		}
	}
}

func TestBuild_FlagsConstantSeries(t *testing.T) {
	m, err := Build(dataset(map[domain.Point][]float64{
		ptA: {1, 2, 3, 4},
		ptB: {7, 7, 7, 7},
		ptC: {4, 1, 3, 2},
	}))
	require.NoError(t, err)

	assert.Equal(t, []domain.Point{ptA, ptC}, m.Points)
	require.Len(t, m.Excluded, 1)
	assert.Equal(t, ptB, m.Excluded[0].Point)
	assert.ErrorIs(t, m.Excluded[0], domain.ErrDegenerateSeries)

	for i := 0; i < m.Len(); i++ {
		for j := 0; j < m.Len(); j++ {
			assert.False(t, math.IsNaN(m.At(i, j)))
		}
	}
	_, ok := m.Index(ptB)
	assert.False(t, ok)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(domain.Dataset{})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = Build(dataset(map[domain.Point][]float64{
		ptA: {1, 2, 3},
		ptB: {1, 2},
	}))
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)

	_, err = Build(dataset(map[domain.Point][]float64{
		ptA: {1, 1, 1},
		ptB: {2, 2, 2},
	}))
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestBuild_Deterministic(t *testing.T) {
	series := map[domain.Point][]float64{
		ptD: {5, 4, 6, 2, 8},
		ptA: {0.3, 1.2, -0.4, 2.2, 0.9},
		ptC: {-2.1, 0.0, 0.7, 0.3, 1.5},
		ptB: {1.0, 0.2, 0.5, 1.9, -0.2},
	}
	first, err := Build(dataset(series))
	require.NoError(t, err)
	for range 5 {
		again, err := Build(dataset(series))
		require.NoError(t, err)
		assert.Equal(t, first.Points, again.Points)
		assert.Equal(t, first.Values.RawSymmetric().Data, again.Values.RawSymmetric().Data)
	}
}

func TestMatrix_IndexAndClone(t *testing.T) {
	m, err := Build(dataset(map[domain.Point][]float64{
		ptA: {1, 2, 3, 5},
		ptC: {4, 1, 3, 2},
	}))
	require.NoError(t, err)

	i, ok := m.Index(ptC)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	c := m.Clone()
	c.Values.SetSym(0, 1, 0)
	assert.NotEqual(t, 0.0, m.At(0, 1))
}

func TestNewMatrix_ShapeMismatch(t *testing.T) {
	m, err := Build(dataset(map[domain.Point][]float64{
		ptA: {1, 2, 3, 5},
		ptC: {4, 1, 3, 2},
	}))
	require.NoError(t, err)

	_, err = NewMatrix([]domain.Point{ptA}, m.Values)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}
