package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/evaluate"
	"github.com/Kavousi-ar/ForecastNetEval/internal/network"
	"github.com/Kavousi-ar/ForecastNetEval/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ErrNoBandsEvaluated is returned for a date on which every band was skipped.
var ErrNoBandsEvaluated = errors.New("pipeline: no band could be evaluated")

// EvaluatorConfig holds the comparison parameters.
type EvaluatorConfig struct {
	Bands     []domain.Band
	Threshold float64
	Universe  evaluate.Universe
}

// Evaluator compares predicted networks with reference networks per band.
type Evaluator struct {
	tracker

	networks   NetworkReader
	reports    ReportWriter
	publishers []ReportPublisher
	cfg        EvaluatorConfig
	opts       Options
}

// NewEvaluator creates an Evaluator. Every finished report is written to
// reports and then handed to each publisher.
func NewEvaluator(networks NetworkReader, reports ReportWriter, cfg EvaluatorConfig, opts Options, publishers ...ReportPublisher) *Evaluator {
	if cfg.Universe == "" {
		cfg.Universe = evaluate.UniverseFull
	}
	return &Evaluator{
		networks:   networks,
		reports:    reports,
		publishers: publishers,
		cfg:        cfg,
		opts:       opts.withDefaults(),
	}
}

// Run evaluates every date in turn. Dates that cannot be evaluated are
// logged and skipped; the returned error is non-nil only when ctx is
// cancelled.
func (e *Evaluator) Run(ctx context.Context, dates []string) ([]domain.Report, error) {
	logger := e.opts.Logger
	logger.Info("evaluation started", "dates", len(dates), "bands", len(e.cfg.Bands),
		"threshold", e.cfg.Threshold, "universe", e.cfg.Universe, "workers", e.opts.Workers)
	e.start(e.opts.Metrics)
	defer e.stop(e.opts.Metrics)

	var reports []domain.Report
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			logger.Info("evaluation stopping", "reason", err)
			return reports, err
		}
		report, err := e.EvaluateDate(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			logger.Error("evaluation failed, skipping date", "date", date, "error", err)
			continue
		}
		reports = append(reports, report)
	}

	logger.Info("evaluation finished", "succeeded", e.succeeded.Load(), "failed", e.failed.Load())
	return reports, nil
}

// EvaluateDate compares every band for one date, writes the report and
// publishes it. Bands with missing or mismatched networks are listed in
// Report.Skipped.
func (e *Evaluator) EvaluateDate(ctx context.Context, date string) (domain.Report, error) {
	results := make([]*domain.BandMetrics, len(e.cfg.Bands))
	failures := make([]error, len(e.cfg.Bands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, band := range e.cfg.Bands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bm, err := e.evaluateBand(gctx, date, band)
			e.record(e.opts.Metrics, observability.StageEvaluate, err)
			if err != nil {
				failures[i] = err
				e.logBandFailure(date, band, err)
				return nil
			}
			results[i] = &bm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		Date:        date,
		Threshold:   e.cfg.Threshold,
		GeneratedAt: e.opts.Clock.Now().UTC(),
	}
	for i, band := range e.cfg.Bands {
		if results[i] != nil {
			report.Bands = append(report.Bands, *results[i])
			e.opts.Metrics.BandF1.WithLabelValues(band.Label()).Set(results[i].F1)
			continue
		}
		report.Skipped = append(report.Skipped, domain.BandFailure{Band: band, Error: failures[i].Error()})
	}
	if len(report.Bands) == 0 {
		return report, fmt.Errorf("evaluate %s: %w", date, ErrNoBandsEvaluated)
	}

	if err := e.reports.SaveReport(ctx, report); err != nil {
		return report, fmt.Errorf("save report %s: %w", date, err)
	}
	for _, p := range e.publishers {
		if err := p.Publish(ctx, report); err != nil {
			e.opts.Logger.Warn("publish report failed", "date", date, "error", err)
		}
	}
	e.opts.Logger.Info("date evaluated", "date", date, "bands", len(report.Bands), "skipped", len(report.Skipped))
	return report, nil
}

func (e *Evaluator) evaluateBand(ctx context.Context, date string, band domain.Band) (domain.BandMetrics, error) {
	start := e.opts.Clock.Now()
	defer func() {
		e.opts.Metrics.StageDuration.WithLabelValues(observability.StageEvaluate).Observe(e.opts.Clock.Since(start).Seconds())
	}()

	ref, err := e.load(ctx, domain.NetworkKey{Date: date, Role: domain.RoleReference, Band: band})
	if err != nil {
		return domain.BandMetrics{}, err
	}
	pred, err := e.load(ctx, domain.NetworkKey{Date: date, Role: domain.RolePredicted, Band: band})
	if err != nil {
		return domain.BandMetrics{}, err
	}

	scores, err := evaluate.Compare(ref, pred, e.cfg.Threshold, e.cfg.Universe)
	if err != nil {
		return domain.BandMetrics{}, fmt.Errorf("compare: %w", err)
	}
	e.opts.Logger.Debug("band evaluated", "date", date, "band", band.Label(),
		"precision", scores.Precision, "recall", scores.Recall, "f1", scores.F1)
	return scores.BandMetrics(band), nil
}

func (e *Evaluator) load(ctx context.Context, key domain.NetworkKey) (*network.Network, error) {
	g, err := e.networks.LoadNetwork(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if failures := g.CoordinateFailures(); len(failures) > 0 {
		e.opts.Logger.Warn("network nodes without coordinates",
			"network", key.String(), "count", len(failures), "first", failures[0].Label)
	}
	return g, nil
}

func (e *Evaluator) logBandFailure(date string, band domain.Band, err error) {
	if outcome(err) == observability.OutcomeSkipped {
		e.opts.Logger.Warn("band skipped", "date", date, "band", band.Label(), "error", err)
		return
	}
	e.opts.Logger.Error("band evaluation failed", "date", date, "band", band.Label(), "error", err)
}
