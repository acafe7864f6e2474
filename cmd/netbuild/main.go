// Command netbuild computes correlation matrices and distance-band networks
// for every date and role listed in an analysis manifest.
//
// Usage:
//
//	DATA_DIR=/data netbuild -manifest analysis.hcl
//	DATA_DIR=/data netbuild -manifest analysis.hcl -single
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kavousi-ar/ForecastNetEval/internal/adapter/filestore"
	httpadapter "github.com/Kavousi-ar/ForecastNetEval/internal/adapter/http"
	"github.com/Kavousi-ar/ForecastNetEval/internal/config"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/matrixio"
	"github.com/Kavousi-ar/ForecastNetEval/internal/observability"
	"github.com/Kavousi-ar/ForecastNetEval/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the HCL analysis manifest")
	dataDir := flag.String("data-dir", "", "data directory (overrides DATA_DIR)")
	single := flag.Bool("single", false, "build one network per date from the manifest filter block instead of the bands")
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *dataDir != "" {
		os.Setenv("DATA_DIR", *dataDir) //nolint:errcheck // only fails on invalid keys
	}
	os.Exit(run(*manifestPath, *single))
}

// run returns the process exit code.
func run(manifestPath string, single bool) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		slog.Error("failed to load manifest", "error", err)
		return 1
	}

	bands, err := selectBands(manifest, single)
	if err != nil {
		slog.Error("invalid manifest", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogFormat, cfg.LogLevel)
	metrics := observability.NewMetrics()

	codec, err := matrixio.NewCodec(cfg.CompressionLevel)
	if err != nil {
		logger.Error("failed to create matrix codec", "error", err)
		return 1
	}
	defer codec.Close()
	store := filestore.New(cfg.DataDir, codec)

	builder := pipeline.NewBuilder(store, store, store, bands, pipeline.Options{
		Workers: cfg.Workers,
		Clock:   clockwork.NewRealClock(),
		Logger:  logger,
		Metrics: metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPEnabled() {
		srv = httpadapter.NewServer(cfg.HTTPAddr, builder, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	results, runErr := builder.Run(ctx, manifest.Dates, manifest.Roles)
	for _, r := range results {
		if r.Err == nil {
			logger.Info("unit built", "date", r.Date, "role", r.Role,
				"points", r.Points, "excluded", len(r.Excluded),
				"networks", len(r.Networks), "failed_bands", len(r.Failed))
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		logger.Error("build interrupted", "error", runErr)
		return 1
	}
	if status := builder.Status(); status.Succeeded == 0 {
		logger.Error("nothing was built", "failed", status.Failed)
		return 1
	}
	logger.Info("build complete")
	return 0
}

// selectBands returns the manifest bands, or the filter block as the only
// band when single is set.
func selectBands(m *config.Manifest, single bool) ([]domain.Band, error) {
	if !single {
		return m.Bands, nil
	}
	if m.Filter == nil {
		return nil, fmt.Errorf("-single requires a filter block in the manifest")
	}
	return []domain.Band{*m.Filter}, nil
}
