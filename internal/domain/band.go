package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Band is a closed distance interval in kilometres.
type Band struct {
	Name    string  `json:"name"`
	LeftKm  float64 `json:"left_km"`
	RightKm float64 `json:"right_km"`
}

// NewBand builds a band named "<left>-<right>".
func NewBand(leftKm, rightKm float64) Band {
	return Band{
		Name:    strconv.FormatFloat(leftKm, 'f', -1, 64) + "-" + strconv.FormatFloat(rightKm, 'f', -1, 64),
		LeftKm:  leftKm,
		RightKm: rightKm,
	}
}

// Validate checks 0 <= LeftKm <= RightKm with finite bounds.
func (b Band) Validate() error {
	if math.IsNaN(b.LeftKm) || math.IsNaN(b.RightKm) || math.IsInf(b.LeftKm, 0) || math.IsInf(b.RightKm, 0) {
		return fmt.Errorf("%w: %s has non-finite bounds", ErrInvalidBand, b.Label())
	}
	if b.LeftKm < 0 {
		return fmt.Errorf("%w: %s has negative left bound", ErrInvalidBand, b.Label())
	}
	if b.LeftKm > b.RightKm {
		return fmt.Errorf("%w: %s has left bound above right bound", ErrInvalidBand, b.Label())
	}
	return nil
}

// Contains reports whether d lies inside the band. Both bounds are inclusive.
func (b Band) Contains(d float64) bool {
	return d >= b.LeftKm && d <= b.RightKm
}

// Label returns the band name, or the rendered bounds when the name is empty.
func (b Band) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return NewBand(b.LeftKm, b.RightKm).Name
}
