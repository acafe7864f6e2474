package network

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

// Network is a weighted undirected graph of grid points without self-loops.
type Network struct {
	*simple.WeightedUndirectedGraph

	coordinateFailures []*domain.CoordinateParseError
}

// WeightedPair is one undirected edge with U < V.
type WeightedPair struct {
	U, V   int64
	Weight float64
}

// New returns an empty network.
func New() *Network {
	return &Network{WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0)}
}

// Build creates one node per matrix point, with ID equal to the point's
// index, and one edge per nonzero off-diagonal cell of the upper triangle.
func Build(m *correlation.Matrix) (*Network, error) {
	if m == nil {
		return nil, fmt.Errorf("build network: nil matrix")
	}
	if m.Values != nil && m.Values.SymmetricDim() != m.Len() {
		return nil, fmt.Errorf("build network: %w", domain.ErrShapeMismatch)
	}

	g := New()
	nodes := make([]*Node, m.Len())
	for i, p := range m.Points {
		nodes[i] = &Node{id: int64(i), Point: p, HasPoint: true}
		g.AddNode(nodes[i])
	}
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			w := m.At(i, j)
			if w == 0 {
				continue
			}
			g.SetWeightedEdge(&Edge{F: nodes[i], T: nodes[j], W: w})
		}
	}
	return g, nil
}

// NewNode implements graph.NodeAdder. The returned node has no point.
func (g *Network) NewNode() graph.Node {
	return &Node{id: g.WeightedUndirectedGraph.NewNode().ID()}
}

// NewEdge implements graph.EdgeAdder.
func (g *Network) NewEdge(from, to graph.Node) graph.Edge {
	return &Edge{F: asNode(from), T: asNode(to)}
}

// SetEdge implements graph.EdgeAdder. Self-loops are dropped.
func (g *Network) SetEdge(e graph.Edge) {
	if e.From().ID() == e.To().ID() {
		return
	}
	we, ok := e.(*Edge)
	if !ok {
		we = &Edge{F: asNode(e.From()), T: asNode(e.To())}
		if w, isWeighted := e.(graph.WeightedEdge); isWeighted {
			we.W = w.Weight()
		}
	}
	g.SetWeightedEdge(we)
}

// NodeList returns all nodes ordered by ID.
func (g *Network) NodeList() []*Node {
	nodes := graph.NodesOf(g.Nodes())
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, asNode(n))
	}
	slices.SortFunc(out, func(a, b *Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// NodeByID returns the node with the given ID, or nil.
func (g *Network) NodeByID(id int64) *Node {
	n := g.Node(id)
	if n == nil {
		return nil
	}
	return asNode(n)
}

// EdgeList returns every edge once, with U < V, ordered by (U, V).
func (g *Network) EdgeList() []WeightedPair {
	var out []WeightedPair
	for _, u := range g.NodeList() {
		for _, v := range graph.NodesOf(g.From(u.ID())) {
			if v.ID() <= u.ID() {
				continue
			}
			w, _ := g.Weight(u.ID(), v.ID())
			out = append(out, WeightedPair{U: u.ID(), V: v.ID(), Weight: w})
		}
	}
	slices.SortFunc(out, func(a, b WeightedPair) int {
		if c := cmp.Compare(a.U, b.U); c != 0 {
			return c
		}
		return cmp.Compare(a.V, b.V)
	})
	return out
}

// PositiveWeights returns the positive edge weights in ascending order, for
// external histogramming.
func (g *Network) PositiveWeights() []float64 {
	var out []float64
	for _, e := range g.EdgeList() {
		if e.Weight > 0 {
			out = append(out, e.Weight)
		}
	}
	slices.Sort(out)
	return out
}

// Adjacency returns the N×N weighted adjacency matrix with nodes ordered by
// ID. Absent edges and the diagonal are 0. An empty network returns nil.
func (g *Network) Adjacency() *mat.Dense {
	nodes := g.NodeList()
	n := len(nodes)
	if n == 0 {
		return nil
	}
	pos := make(map[int64]int, n)
	for i, node := range nodes {
		pos[node.ID()] = i
	}
	a := mat.NewDense(n, n, nil)
	for _, e := range g.EdgeList() {
		i, j := pos[e.U], pos[e.V]
		a.Set(i, j, e.Weight)
		a.Set(j, i, e.Weight)
	}
	return a
}

// CoordinateFailures lists nodes whose coordinates could not be recovered
// when the network was decoded.
func (g *Network) CoordinateFailures() []*domain.CoordinateParseError {
	return g.coordinateFailures
}

func asNode(n graph.Node) *Node {
	if node, ok := n.(*Node); ok {
		return node
	}
	return &Node{id: n.ID()}
}
