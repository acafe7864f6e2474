// Package pipeline runs network builds and evaluations over analysis dates.
//
// Work is split into independent units: one correlation per (date, role)
// and one network or comparison per band. Band tasks run on a bounded worker
// pool; each owns its output paths. A failed unit is logged, counted and
// skipped; only cancellation stops a run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/network"
	"github.com/Kavousi-ar/ForecastNetEval/internal/observability"
	"github.com/jonboulle/clockwork"
)

// SeriesSource loads the aligned series for one (date, role).
type SeriesSource interface {
	LoadSeries(ctx context.Context, date string, role domain.Role) (domain.Dataset, error)
}

// MatrixWriter persists a correlation matrix.
type MatrixWriter interface {
	SaveMatrix(ctx context.Context, date string, role domain.Role, m *correlation.Matrix) error
}

// NetworkWriter persists a band network.
type NetworkWriter interface {
	SaveNetwork(ctx context.Context, key domain.NetworkKey, g *network.Network) error
}

// NetworkReader loads a persisted band network.
type NetworkReader interface {
	LoadNetwork(ctx context.Context, key domain.NetworkKey) (*network.Network, error)
}

// ReportWriter persists the evaluation report of one date.
type ReportWriter interface {
	SaveReport(ctx context.Context, report domain.Report) error
}

// ReportPublisher delivers a finished report to an external consumer.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Options carries the shared runtime dependencies of Builder and Evaluator.
type Options struct {
	Workers int
	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = observability.NewMetricsForTesting()
	}
	return o
}

// Status is a snapshot of run progress.
type Status struct {
	Active    bool  `json:"active"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// tracker records progress for readiness and status reporting.
type tracker struct {
	active    atomic.Bool
	succeeded atomic.Int64
	failed    atomic.Int64
}

func (t *tracker) start(m *observability.Metrics) {
	t.active.Store(true)
	m.RunActive.Set(1)
}

func (t *tracker) stop(m *observability.Metrics) {
	t.active.Store(false)
	m.RunActive.Set(0)
}

func (t *tracker) record(m *observability.Metrics, stage string, err error) {
	if err != nil {
		t.failed.Add(1)
		m.UnitsProcessed.WithLabelValues(stage, outcome(err)).Inc()
		return
	}
	t.succeeded.Add(1)
	m.UnitsProcessed.WithLabelValues(stage, observability.OutcomeSuccess).Inc()
}

// CheckReadiness returns nil once at least one unit has completed
// successfully.
func (t *tracker) CheckReadiness(_ context.Context) error {
	if t.succeeded.Load() == 0 {
		return errors.New("no work unit has completed yet")
	}
	return nil
}

// Status returns the current progress counters.
func (t *tracker) Status() Status {
	return Status{
		Active:    t.active.Load(),
		Succeeded: t.succeeded.Load(),
		Failed:    t.failed.Load(),
	}
}

// outcome separates expected skips (absent or mismatched inputs) from
// unexpected failures.
func outcome(err error) string {
	if errors.Is(err, domain.ErrMissingInput) || errors.Is(err, domain.ErrShapeMismatch) {
		return observability.OutcomeSkipped
	}
	return observability.OutcomeFailed
}
