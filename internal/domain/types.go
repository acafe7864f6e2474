package domain

import (
	"fmt"
	"time"
)

// Role distinguishes the two datasets compared on each analysis date.
type Role string

const (
	RoleReference Role = "reference"
	RolePredicted Role = "predicted"
)

// ParseRole accepts "reference" or "predicted".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleReference, RolePredicted:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Dataset holds one series per point, all aligned on a shared time axis.
// The axis is opaque here; it is carried so persisted outputs can name it.
type Dataset struct {
	Axis   []string
	Series map[Point][]float64
}

// Len returns the number of points in the dataset.
func (d Dataset) Len() int { return len(d.Series) }

// Metrics is one precision/recall/F1 triple.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// BandMetrics is the evaluation result for a single distance band.
type BandMetrics struct {
	Band Band `json:"band"`
	Metrics
	TruePositives  int `json:"tp"`
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
	TrueNegatives  int `json:"tn"`
}

// BandFailure records a band whose evaluation was skipped.
type BandFailure struct {
	Band  Band   `json:"band"`
	Error string `json:"error"`
}

// Report is the terminal output of one evaluation date.
type Report struct {
	Date        string        `json:"date"`
	Threshold   float64       `json:"threshold"`
	GeneratedAt time.Time     `json:"generated_at"`
	Bands       []BandMetrics `json:"bands"`
	Skipped     []BandFailure `json:"skipped,omitempty"`
}

// NetworkKey addresses one persisted graph.
type NetworkKey struct {
	Date string
	Role Role
	Band Band
}

func (k NetworkKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Role, k.Date, k.Band.Label())
}
