package pipeline

import (
	"context"
	"fmt"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/geodist"
	"github.com/Kavousi-ar/ForecastNetEval/internal/network"
	"github.com/Kavousi-ar/ForecastNetEval/internal/observability"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// BuildResult describes one (date, role) build.
type BuildResult struct {
	Date     string
	Role     domain.Role
	Points   int
	Excluded []*domain.DegenerateSeriesError
	Networks []domain.NetworkKey
	Failed   []domain.BandFailure
	Err      error
}

// Builder computes correlation matrices and band networks.
type Builder struct {
	tracker

	source    SeriesSource
	matrices  MatrixWriter
	networks  NetworkWriter
	bands     []domain.Band
	distances *geodist.Cache
	opts      Options
}

// distanceCacheSize bounds the number of distinct grids kept in memory.
const distanceCacheSize = 8

// NewBuilder creates a Builder producing one network per band.
func NewBuilder(source SeriesSource, matrices MatrixWriter, networks NetworkWriter, bands []domain.Band, opts Options) *Builder {
	return &Builder{
		source:    source,
		matrices:  matrices,
		networks:  networks,
		bands:     bands,
		distances: geodist.NewCache(distanceCacheSize),
		opts:      opts.withDefaults(),
	}
}

// Run builds every (date, role) in turn. Failed units are reported in the
// results; the returned error is non-nil only when ctx is cancelled.
func (b *Builder) Run(ctx context.Context, dates []string, roles []domain.Role) ([]BuildResult, error) {
	logger := b.opts.Logger
	logger.Info("build started", "dates", len(dates), "roles", len(roles), "bands", len(b.bands), "workers", b.opts.Workers)
	b.start(b.opts.Metrics)
	defer b.stop(b.opts.Metrics)

	var results []BuildResult
	for _, date := range dates {
		for _, role := range roles {
			if err := ctx.Err(); err != nil {
				logger.Info("build stopping", "reason", err)
				return results, err
			}
			res := b.Build(ctx, date, role)
			if res.Err != nil {
				if ctx.Err() != nil {
					return append(results, res), ctx.Err()
				}
				logger.Error("build failed, skipping", "date", date, "role", role, "error", res.Err)
			}
			results = append(results, res)
		}
	}

	logger.Info("build finished", "succeeded", b.succeeded.Load(), "failed", b.failed.Load())
	return results, nil
}

// Build correlates one (date, role), persists the matrix and builds every
// band network from it.
func (b *Builder) Build(ctx context.Context, date string, role domain.Role) BuildResult {
	res := BuildResult{Date: date, Role: role}

	m, dist, err := b.correlate(ctx, date, role)
	b.record(b.opts.Metrics, observability.StageCorrelate, err)
	if err != nil {
		res.Err = err
		return res
	}
	res.Points = m.Len()
	res.Excluded = m.Excluded

	built := make([]bool, len(b.bands))
	failures := make([]error, len(b.bands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, band := range b.bands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := domain.NetworkKey{Date: date, Role: role, Band: band}
			err := b.buildBand(gctx, key, m, dist)
			b.record(b.opts.Metrics, observability.StageBand, err)
			if err != nil {
				failures[i] = err
				b.opts.Logger.Warn("band build failed, skipping",
					"date", date, "role", role, "band", band.Label(), "error", err)
				return nil
			}
			built[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		res.Err = err
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	for i, band := range b.bands {
		switch {
		case built[i]:
			res.Networks = append(res.Networks, domain.NetworkKey{Date: date, Role: role, Band: band})
		case failures[i] != nil:
			res.Failed = append(res.Failed, domain.BandFailure{Band: band, Error: failures[i].Error()})
		}
	}
	return res
}

func (b *Builder) correlate(ctx context.Context, date string, role domain.Role) (*correlation.Matrix, *mat.SymDense, error) {
	start := b.opts.Clock.Now()
	defer func() {
		b.opts.Metrics.StageDuration.WithLabelValues(observability.StageCorrelate).Observe(b.opts.Clock.Since(start).Seconds())
	}()

	ds, err := b.source.LoadSeries(ctx, date, role)
	if err != nil {
		return nil, nil, fmt.Errorf("load series: %w", err)
	}

	m, err := correlation.Build(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("correlate %s/%s: %w", role, date, err)
	}
	for _, e := range m.Excluded {
		b.opts.Metrics.DegenerateSeries.Inc()
		b.opts.Logger.Warn("degenerate series excluded",
			"date", date, "role", role, "point", e.Point.String(), "reason", e.Reason)
	}

	if err := b.matrices.SaveMatrix(ctx, date, role, m); err != nil {
		return nil, nil, fmt.Errorf("save matrix: %w", err)
	}
	b.opts.Logger.Debug("correlation matrix saved",
		"date", date, "role", role, "points", m.Len(), "excluded", len(m.Excluded))

	return m, b.distances.Matrix(m.Points), nil
}

// buildBand reads m and dist without modifying them.
func (b *Builder) buildBand(ctx context.Context, key domain.NetworkKey, m *correlation.Matrix, dist *mat.SymDense) error {
	start := b.opts.Clock.Now()
	defer func() {
		b.opts.Metrics.StageDuration.WithLabelValues(observability.StageBand).Observe(b.opts.Clock.Since(start).Seconds())
	}()

	filtered, err := geodist.Filter(m, dist, key.Band)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	g, err := network.Build(filtered)
	if err != nil {
		return err
	}
	if err := b.networks.SaveNetwork(ctx, key, g); err != nil {
		return fmt.Errorf("save network: %w", err)
	}

	edges := g.EdgeList()
	b.opts.Metrics.EdgesBuilt.Add(float64(len(edges)))
	for _, w := range g.PositiveWeights() {
		b.opts.Metrics.EdgeWeight.Observe(w)
	}
	b.opts.Logger.Debug("network saved", "network", key.String(), "nodes", g.Nodes().Len(), "edges", len(edges))
	return nil
}
