// Package evaluate scores a predicted network against a reference network.
//
// Both adjacency matrices are flattened with the same convention, each weight
// is binarized as present when weight >= threshold, and the reference is
// treated as ground truth. The default universe is the full N×N matrix,
// diagonal included, so every undirected edge is counted twice; the ratios
// are unaffected because both sides are flattened alike.
package evaluate

import (
	"fmt"
	"math"
	"slices"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/network"
	"gonum.org/v1/gonum/mat"
)

// Universe selects which adjacency cells take part in the comparison.
type Universe string

const (
	// UniverseFull uses every cell of the N×N matrix.
	UniverseFull Universe = "full"
	// UniverseUpper uses the strict upper triangle, one cell per node pair.
	UniverseUpper Universe = "upper"
)

// ParseUniverse maps "" and "full" to UniverseFull and "upper" to UniverseUpper.
func ParseUniverse(s string) (Universe, error) {
	switch Universe(s) {
	case "", UniverseFull:
		return UniverseFull, nil
	case UniverseUpper:
		return UniverseUpper, nil
	default:
		return "", fmt.Errorf("unknown comparison universe %q", s)
	}
}

// Scores holds the metrics and the confusion counts behind them.
type Scores struct {
	domain.Metrics
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	TrueNegatives  int
}

// Total returns the size of the classification universe.
func (s Scores) Total() int {
	return s.TruePositives + s.FalsePositives + s.FalseNegatives + s.TrueNegatives
}

// BandMetrics attaches the scores to a band.
func (s Scores) BandMetrics(b domain.Band) domain.BandMetrics {
	return domain.BandMetrics{
		Band:           b,
		Metrics:        s.Metrics,
		TruePositives:  s.TruePositives,
		FalsePositives: s.FalsePositives,
		FalseNegatives: s.FalseNegatives,
		TrueNegatives:  s.TrueNegatives,
	}
}

// FlattenFull returns every cell of a in row-major order.
func FlattenFull(a *mat.Dense) []float64 {
	if a == nil {
		return nil
	}
	r, c := a.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, a.At(i, j))
		}
	}
	return out
}

// FlattenUpper returns the strict upper triangle of a in row-major order.
func FlattenUpper(a *mat.Dense) []float64 {
	if a == nil {
		return nil
	}
	r, c := a.Dims()
	var out []float64
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			out = append(out, a.At(i, j))
		}
	}
	return out
}

// Flatten dispatches on the universe.
func Flatten(a *mat.Dense, u Universe) []float64 {
	if u == UniverseUpper {
		return FlattenUpper(a)
	}
	return FlattenFull(a)
}

// Binarize marks weights >= threshold as present.
func Binarize(weights []float64, threshold float64) []bool {
	out := make([]bool, len(weights))
	for i, w := range weights {
		out[i] = w >= threshold
	}
	return out
}

// Score computes precision, recall and F1 with reference as ground truth.
// Any ratio whose denominator is 0 is reported as 0.
func Score(reference, predicted []bool) (Scores, error) {
	if len(reference) != len(predicted) {
		return Scores{}, fmt.Errorf("%w: reference has %d cells, predicted has %d",
			domain.ErrShapeMismatch, len(reference), len(predicted))
	}

	var s Scores
	for i := range reference {
		switch {
		case reference[i] && predicted[i]:
			s.TruePositives++
		case !reference[i] && predicted[i]:
			s.FalsePositives++
		case reference[i] && !predicted[i]:
			s.FalseNegatives++
		default:
			s.TrueNegatives++
		}
	}

	s.Precision = ratio(s.TruePositives, s.TruePositives+s.FalsePositives)
	s.Recall = ratio(s.TruePositives, s.TruePositives+s.FalseNegatives)
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s, nil
}

// Compare scores predicted against reference. Networks whose nodes all carry
// distinct points are compared over the sorted union of their points, so a
// point present on one side only contributes no edges on the other. Otherwise
// nodes are matched by position and both networks must have the same size.
func Compare(reference, predicted *network.Network, threshold float64, u Universe) (Scores, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return Scores{}, fmt.Errorf("%w: %v", domain.ErrInvalidThreshold, threshold)
	}

	ra, pa, err := align(reference, predicted)
	if err != nil {
		return Scores{}, err
	}

	return Score(
		Binarize(Flatten(ra, u), threshold),
		Binarize(Flatten(pa, u), threshold),
	)
}

// align returns both adjacency matrices over a shared node order. Either
// matrix is nil when the shared order is empty.
func align(reference, predicted *network.Network) (*mat.Dense, *mat.Dense, error) {
	rp, rok := pointsOf(reference)
	pp, pok := pointsOf(predicted)
	if rok && pok {
		index := slices.Concat(rp, pp)
		slices.SortFunc(index, domain.Point.Compare)
		index = slices.Compact(index)
		return adjacencyOver(reference, index), adjacencyOver(predicted, index), nil
	}

	ra, pa := reference.Adjacency(), predicted.Adjacency()
	rn, pn := dim(ra), dim(pa)
	if rn != pn {
		return nil, nil, fmt.Errorf("%w: reference is %dx%d, predicted is %dx%d",
			domain.ErrShapeMismatch, rn, rn, pn, pn)
	}
	if err := sameIndex(reference, predicted); err != nil {
		return nil, nil, err
	}
	return ra, pa, nil
}

// pointsOf returns the node points of g, or false when a node has no point or
// two nodes share one.
func pointsOf(g *network.Network) ([]domain.Point, bool) {
	nodes := g.NodeList()
	out := make([]domain.Point, 0, len(nodes))
	seen := make(map[domain.Point]struct{}, len(nodes))
	for _, n := range nodes {
		if !n.HasPoint {
			return nil, false
		}
		if _, dup := seen[n.Point]; dup {
			return nil, false
		}
		seen[n.Point] = struct{}{}
		out = append(out, n.Point)
	}
	return out, true
}

// adjacencyOver lays the edges of g out over index, which must contain every
// node point of g.
func adjacencyOver(g *network.Network, index []domain.Point) *mat.Dense {
	n := len(index)
	if n == 0 {
		return nil
	}
	pos := make(map[domain.Point]int, n)
	for i, p := range index {
		pos[p] = i
	}
	a := mat.NewDense(n, n, nil)
	for _, e := range g.EdgeList() {
		i, j := pos[g.NodeByID(e.U).Point], pos[g.NodeByID(e.V).Point]
		a.Set(i, j, e.Weight)
		a.Set(j, i, e.Weight)
	}
	return a
}

// sameIndex checks that nodes at the same position refer to the same point
// whenever both carry coordinates.
func sameIndex(reference, predicted *network.Network) error {
	rn, pn := reference.NodeList(), predicted.NodeList()
	for i := range rn {
		if rn[i].HasPoint && pn[i].HasPoint && rn[i].Point != pn[i].Point {
			return fmt.Errorf("%w: node %d is %s in reference and %s in predicted",
				domain.ErrShapeMismatch, i, rn[i].Point, pn[i].Point)
		}
	}
	return nil
}

func dim(a *mat.Dense) int {
	if a == nil {
		return 0
	}
	r, _ := a.Dims()
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
