package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateSeries is returned when a series cannot be standardized:
	// zero variance, fewer than two samples, or non-finite samples.
	ErrDegenerateSeries = errors.New("domain: degenerate series")

	// ErrCoordinateParse indicates a node label that is not a "(lat, lon)" tuple.
	ErrCoordinateParse = errors.New("domain: cannot parse coordinate label")

	// ErrShapeMismatch indicates two matrices or vectors that must share a
	// shape do not.
	ErrShapeMismatch = errors.New("domain: shape mismatch")

	// ErrMissingInput indicates an expected persisted matrix, graph or series
	// file is absent.
	ErrMissingInput = errors.New("domain: missing input")

	// ErrInvalidBand indicates a band with negative, non-finite or inverted bounds.
	ErrInvalidBand = errors.New("domain: invalid distance band")

	// ErrInvalidThreshold indicates a non-finite binarization threshold.
	ErrInvalidThreshold = errors.New("domain: invalid threshold")

	// ErrEmptyInput indicates a dataset without any usable series.
	ErrEmptyInput = errors.New("domain: empty input")

	// ErrLengthMismatch indicates series of differing lengths in one dataset.
	ErrLengthMismatch = errors.New("domain: series length mismatch")

	// ErrInvalidPoint indicates a latitude or longitude outside the valid range.
	ErrInvalidPoint = errors.New("domain: invalid point")
)

// DegenerateSeriesError flags one point whose series was excluded.
type DegenerateSeriesError struct {
	Point  Point
	Reason string
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("degenerate series at %s: %s", e.Point, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrDegenerateSeries).
func (e *DegenerateSeriesError) Unwrap() error { return ErrDegenerateSeries }

// CoordinateParseError carries the label that failed to parse.
type CoordinateParseError struct {
	Label string
}

func (e *CoordinateParseError) Error() string {
	return fmt.Sprintf("cannot parse coordinate label %q", e.Label)
}

func (e *CoordinateParseError) Unwrap() error { return ErrCoordinateParse }
