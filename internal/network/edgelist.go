package network

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// WriteEdgeList writes one "u\tv" line per edge, u < v, ordered by (u, v).
func WriteEdgeList(w io.Writer, g *Network) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, e := range g.EdgeList() {
		rec := []string{strconv.FormatInt(e.U, 10), strconv.FormatInt(e.V, 10)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write edge list: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write edge list: %w", err)
	}
	return nil
}

// ReadEdgeList parses an edge list written by WriteEdgeList. Pairs are
// returned as read; weights are 0.
func ReadEdgeList(r io.Reader) ([]WeightedPair, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = 2
	cr.Comment = '#'

	var out []WeightedPair
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read edge list: %w", err)
		}
		u, errU := strconv.ParseInt(rec[0], 10, 64)
		v, errV := strconv.ParseInt(rec[1], 10, 64)
		if errU != nil || errV != nil {
			return nil, fmt.Errorf("read edge list: invalid pair %q", rec)
		}
		out = append(out, WeightedPair{U: u, V: v})
	}
}
