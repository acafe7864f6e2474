package network

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testPoints = []domain.Point{
	{Lat: 10, Lon: 20},
	{Lat: 10, Lon: 21},
	{Lat: 11, Lon: 20},
	{Lat: 12, Lon: -5.5},
}

// filteredMatrix returns a 4-point matrix with a zero diagonal (as after a
// band filter with min > 0), two positive edges, one negative edge and one
// isolated node.
func filteredMatrix(t *testing.T) *correlation.Matrix {
	t.Helper()
	values := mat.NewSymDense(4, []float64{
		0, 0.8, -0.3, 0,
		0.8, 0, 0.45, 0,
		-0.3, 0.45, 0, 0,
		0, 0, 0, 0,
	})
	m, err := correlation.NewMatrix(testPoints, values)
	require.NoError(t, err)
	return m
}

type pointPair struct{ A, B domain.Point }

// edgesByPoint keys every edge weight by its endpoint coordinates.
func edgesByPoint(t *testing.T, g *Network) map[pointPair]float64 {
	t.Helper()
	out := make(map[pointPair]float64)
	for _, e := range g.EdgeList() {
		a, b := g.NodeByID(e.U), g.NodeByID(e.V)
		require.True(t, a.HasPoint)
		require.True(t, b.HasPoint)
		pa, pb := a.Point, b.Point
		if pb.Compare(pa) < 0 {
			pa, pb = pb, pa
		}
		out[pointPair{pa, pb}] = e.Weight
	}
	return out
}

func nodePoints(g *Network) []domain.Point {
	var out []domain.Point
	for _, n := range g.NodeList() {
		out = append(out, n.Point)
	}
	return out
}

func TestBuild(t *testing.T) {
	g, err := Build(filteredMatrix(t))
	require.NoError(t, err)

	nodes := g.NodeList()
	require.Len(t, nodes, 4)
	for i, n := range nodes {
		assert.Equal(t, int64(i), n.ID(), "canonical IDs follow matrix index order")
		assert.Equal(t, testPoints[i], n.Point)
		assert.True(t, n.HasPoint)
	}

	assert.Equal(t, []WeightedPair{
		{U: 0, V: 1, Weight: 0.8},
		{U: 0, V: 2, Weight: -0.3},
		{U: 1, V: 2, Weight: 0.45},
	}, g.EdgeList())

	for _, n := range nodes {
		assert.False(t, g.HasEdgeBetween(n.ID(), n.ID()), "no self-loops")
	}
	assert.Equal(t, 0, g.From(3).Len(), "isolated node kept")
}

func TestBuild_IgnoresDiagonal(t *testing.T) {
	values := mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1})
	m, err := correlation.NewMatrix(testPoints[:2], values)
	require.NoError(t, err)

	g, err := Build(m)
	require.NoError(t, err)
	assert.Len(t, g.EdgeList(), 1)
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(filteredMatrix(t))
	require.NoError(t, err)
	b, err := Build(filteredMatrix(t))
	require.NoError(t, err)

	da, err := MarshalDOT(a, "net")
	require.NoError(t, err)
	db, err := MarshalDOT(b, "net")
	require.NoError(t, err)
	assert.Equal(t, string(da), string(db))
}

func TestPositiveWeights(t *testing.T) {
	g, err := Build(filteredMatrix(t))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.45, 0.8}, g.PositiveWeights())
}

func TestAdjacency(t *testing.T) {
	g, err := Build(filteredMatrix(t))
	require.NoError(t, err)

	a := g.Adjacency()
	r, c := a.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 4, c)
	want := []float64{
		0, 0.8, -0.3, 0,
		0.8, 0, 0.45, 0,
		-0.3, 0.45, 0, 0,
		0, 0, 0, 0,
	}
	assert.Equal(t, want, a.RawMatrix().Data)

	assert.Nil(t, New().Adjacency())
}

func TestDOT_RoundTrip(t *testing.T) {
	g, err := Build(filteredMatrix(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, g, "band_0_500"))

	back, err := ReadDOT(&buf)
	require.NoError(t, err)
	assert.Empty(t, back.CoordinateFailures())

	if diff := cmp.Diff(nodePoints(g), nodePoints(back)); diff != "" {
		t.Fatalf("node attributes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(edgesByPoint(t, g), edgesByPoint(t, back)); diff != "" {
		t.Fatalf("edge weights mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalDOT_ExternalLabels(t *testing.T) {
	src := `graph {
	"(10, 20)" -- "(10, 21)" [weight=0.7];
	lagos [lat=6.5 lon=3.4];
	lagos -- "(10, 20)" [weight=0.25];
	nowhere;
}`
	g, err := UnmarshalDOT([]byte(src))
	require.NoError(t, err)

	nodes := g.NodeList()
	require.Len(t, nodes, 4)

	byLabel := make(map[string]*Node)
	for _, n := range nodes {
		byLabel[strings.Trim(n.Label(), `"`)] = n
	}
	assert.Equal(t, domain.Point{Lat: 10, Lon: 20}, byLabel["(10, 20)"].Point)
	assert.Equal(t, domain.Point{Lat: 6.5, Lon: 3.4}, byLabel["lagos"].Point)
	assert.False(t, byLabel["nowhere"].HasPoint)

	failures := g.CoordinateFailures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], domain.ErrCoordinateParse)

	weights := edgesByPointLoose(g)
	assert.ElementsMatch(t, []float64{0.7, 0.25}, weights)
}

func TestUnmarshalDOT_DropsSelfLoops(t *testing.T) {
	g, err := UnmarshalDOT([]byte(`graph { a -- a [weight=1]; a -- b [weight=0.5]; }`))
	require.NoError(t, err)
	assert.Len(t, g.EdgeList(), 1)
}

func TestUnmarshalDOT_Invalid(t *testing.T) {
	_, err := UnmarshalDOT([]byte(`graph { a -- `))
	assert.Error(t, err)
}

func TestEdgeList_RoundTrip(t *testing.T) {
	g, err := Build(filteredMatrix(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteEdgeList(&buf, g))
	assert.Equal(t, "0\t1\n0\t2\n1\t2\n", buf.String())

	pairs, err := ReadEdgeList(&buf)
	require.NoError(t, err)
	assert.Equal(t, []WeightedPair{{U: 0, V: 1}, {U: 0, V: 2}, {U: 1, V: 2}}, pairs)
}

func TestReadEdgeList_Invalid(t *testing.T) {
	_, err := ReadEdgeList(strings.NewReader("0\tx\n"))
	assert.Error(t, err)

	_, err = ReadEdgeList(strings.NewReader("0\t1\t2\n"))
	assert.Error(t, err)
}

func edgesByPointLoose(g *Network) []float64 {
	var out []float64
	for _, e := range g.EdgeList() {
		out = append(out, e.Weight)
	}
	return out
}
