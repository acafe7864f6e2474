package network

import (
	"errors"
	"fmt"
	"io"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// MarshalDOT renders g in DOT with lat/lon node attributes and weight edge
// attributes. Output is deterministic for a given graph.
func MarshalDOT(g *Network, name string) ([]byte, error) {
	b, err := dot.Marshal(g, name, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal network %s: %w", name, err)
	}
	return b, nil
}

// UnmarshalDOT decodes a DOT graph. Node coordinates come from lat/lon
// attributes, or from a "(lat, lon)" node ID when the attributes are absent.
// Nodes whose coordinates cannot be recovered are kept without a point and
// listed in CoordinateFailures.
func UnmarshalDOT(data []byte) (*Network, error) {
	g := New()
	if err := dot.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("unmarshal network: %w", err)
	}
	for _, n := range g.NodeList() {
		if err := n.resolvePoint(); err != nil {
			var perr *domain.CoordinateParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("unmarshal network: %w", err)
			}
			g.coordinateFailures = append(g.coordinateFailures, perr)
		}
	}
	return g, nil
}

// WriteDOT writes the DOT form of g to w.
func WriteDOT(w io.Writer, g *Network, name string) error {
	b, err := MarshalDOT(g, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write network %s: %w", name, err)
	}
	return nil
}

// ReadDOT reads a DOT graph from r.
func ReadDOT(r io.Reader) (*Network, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	return UnmarshalDOT(b)
}
