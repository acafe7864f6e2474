// Package matrixio persists correlation matrices as zstd-compressed blobs.
//
// A blob is a JSON envelope holding the point index, the excluded points and
// the gonum binary encoding of the matrix values.
package matrixio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// FormatVersion is written into every envelope.
const FormatVersion = 1

type envelope struct {
	Version  int            `json:"version"`
	Points   []domain.Point `json:"points"`
	Excluded []excluded     `json:"excluded,omitempty"`
	Values   []byte         `json:"values,omitempty"`
}

type excluded struct {
	Point  domain.Point `json:"point"`
	Reason string       `json:"reason"`
}

// Codec encodes and decodes matrix blobs. It is safe for concurrent use.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec maps level 1..4 to the zstd speed presets, fastest to best
// compression. Other values use the default preset.
func NewCodec(level int) (*Codec, error) {
	encLevel := zstd.SpeedDefault
	switch level {
	case 1:
		encLevel = zstd.SpeedFastest
	case 3:
		encLevel = zstd.SpeedBetterCompression
	case 4:
		encLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Close releases the encoder and decoder.
func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// Marshal encodes m into a compressed blob.
func (c *Codec) Marshal(m *correlation.Matrix) ([]byte, error) {
	env := envelope{Version: FormatVersion, Points: m.Points}
	for _, e := range m.Excluded {
		env.Excluded = append(env.Excluded, excluded{Point: e.Point, Reason: e.Reason})
	}
	if m.Values != nil {
		raw, err := mat.DenseCopyOf(m.Values).MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal matrix values: %w", err)
		}
		env.Values = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix envelope: %w", err)
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Unmarshal decodes a blob produced by Marshal. The decoded matrix must be
// square, symmetric and sized to its index.
func (c *Codec) Unmarshal(blob []byte) (*correlation.Matrix, error) {
	data, err := c.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress matrix: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal matrix envelope: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported matrix format version %d", env.Version)
	}

	var values *mat.SymDense
	if len(env.Values) > 0 {
		var dense mat.Dense
		if err := dense.UnmarshalBinary(env.Values); err != nil {
			return nil, fmt.Errorf("unmarshal matrix values: %w", err)
		}
		values, err = symmetric(&dense)
		if err != nil {
			return nil, err
		}
	}

	m, err := correlation.NewMatrix(env.Points, values)
	if err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	for _, e := range env.Excluded {
		m.Excluded = append(m.Excluded, &domain.DegenerateSeriesError{Point: e.Point, Reason: e.Reason})
	}
	return m, nil
}

// Write marshals m to w.
func (c *Codec) Write(w io.Writer, m *correlation.Matrix) error {
	blob, err := c.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("write matrix: %w", err)
	}
	return nil
}

// Read unmarshals a matrix from r.
func (c *Codec) Read(r io.Reader) (*correlation.Matrix, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	return c.Unmarshal(blob)
}

func symmetric(d *mat.Dense) (*mat.SymDense, error) {
	r, cols := d.Dims()
	if r != cols {
		return nil, fmt.Errorf("%w: stored matrix is %dx%d", domain.ErrShapeMismatch, r, cols)
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			if d.At(i, j) != d.At(j, i) {
				return nil, fmt.Errorf("stored matrix is not symmetric at (%d,%d)", i, j)
			}
			s.SetSym(i, j, d.At(i, j))
		}
	}
	return s, nil
}
