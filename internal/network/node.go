package network

import (
	"fmt"
	"strconv"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
)

const (
	attrLat    = "lat"
	attrLon    = "lon"
	attrWeight = "weight"
)

// Node is a grid point in a network.
type Node struct {
	id int64

	Point    domain.Point
	HasPoint bool

	// label is the DOT ID the node was read with, if any.
	label  string
	hasLat bool
	hasLon bool
}

// ID implements graph.Node.
func (n *Node) ID() int64 { return n.id }

// Label returns the external identifier the node was decoded with.
func (n *Node) Label() string { return n.label }

// DOTID implements dot.Node.
func (n *Node) DOTID() string { return strconv.FormatInt(n.id, 10) }

// SetDOTID implements dot.DOTIDSetter.
func (n *Node) SetDOTID(id string) { n.label = id }

// Attributes implements encoding.Attributer.
func (n *Node) Attributes() []encoding.Attribute {
	if !n.HasPoint {
		return nil
	}
	return []encoding.Attribute{
		{Key: attrLat, Value: formatFloat(n.Point.Lat)},
		{Key: attrLon, Value: formatFloat(n.Point.Lon)},
	}
}

// SetAttribute implements encoding.AttributeSetter. Unknown keys are ignored
// and unparsable coordinates leave the node without a point.
func (n *Node) SetAttribute(attr encoding.Attribute) error {
	switch attr.Key {
	case attrLat:
		v, err := strconv.ParseFloat(unquote(attr.Value), 64)
		if err != nil {
			return nil
		}
		n.Point.Lat, n.hasLat = v, true
	case attrLon:
		v, err := strconv.ParseFloat(unquote(attr.Value), 64)
		if err != nil {
			return nil
		}
		n.Point.Lon, n.hasLon = v, true
	}
	n.HasPoint = n.hasLat && n.hasLon
	return nil
}

// resolvePoint fills the point from the DOT label when the attributes did not.
func (n *Node) resolvePoint() error {
	if n.HasPoint {
		if err := n.Point.Validate(); err != nil {
			n.HasPoint = false
			return &domain.CoordinateParseError{Label: n.Point.String()}
		}
		return nil
	}
	p, err := domain.ParsePointLabel(n.label)
	if err != nil {
		return err
	}
	n.Point, n.HasPoint = p, true
	return nil
}

// Edge is a weighted undirected edge between two nodes.
type Edge struct {
	F, T *Node
	W    float64
}

// From implements graph.Edge.
func (e *Edge) From() graph.Node { return e.F }

// To implements graph.Edge.
func (e *Edge) To() graph.Node { return e.T }

// ReversedEdge implements graph.Edge.
func (e *Edge) ReversedEdge() graph.Edge { return &Edge{F: e.T, T: e.F, W: e.W} }

// Weight implements graph.WeightedEdge.
func (e *Edge) Weight() float64 { return e.W }

// Attributes implements encoding.Attributer.
func (e *Edge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: attrWeight, Value: formatFloat(e.W)}}
}

// SetAttribute implements encoding.AttributeSetter.
func (e *Edge) SetAttribute(attr encoding.Attribute) error {
	if attr.Key != attrWeight {
		return nil
	}
	v, err := strconv.ParseFloat(unquote(attr.Value), 64)
	if err != nil {
		return fmt.Errorf("edge %d--%d: parse weight %q: %w", e.F.ID(), e.T.ID(), attr.Value, err)
	}
	e.W = v
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}
