// Command neteval compares predicted networks with reference networks for
// every date and band in an analysis manifest, writing one metrics CSV per
// date and optionally publishing the results to Kafka.
//
// Usage:
//
//	DATA_DIR=/data neteval -manifest analysis.hcl
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kavousi-ar/ForecastNetEval/internal/adapter/filestore"
	httpadapter "github.com/Kavousi-ar/ForecastNetEval/internal/adapter/http"
	kafkaadapter "github.com/Kavousi-ar/ForecastNetEval/internal/adapter/kafka"
	"github.com/Kavousi-ar/ForecastNetEval/internal/config"
	"github.com/Kavousi-ar/ForecastNetEval/internal/matrixio"
	"github.com/Kavousi-ar/ForecastNetEval/internal/observability"
	"github.com/Kavousi-ar/ForecastNetEval/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the HCL analysis manifest")
	dataDir := flag.String("data-dir", "", "data directory (overrides DATA_DIR)")
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *dataDir != "" {
		os.Setenv("DATA_DIR", *dataDir) //nolint:errcheck // only fails on invalid keys
	}
	os.Exit(run(*manifestPath))
}

// run returns the process exit code.
func run(manifestPath string) int {
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

	logger := observability.NewLogger(cfg.LogFormat, cfg.LogLevel)
	metrics := observability.NewMetrics()

	codec, err := matrixio.NewCodec(cfg.CompressionLevel)
	if err != nil {
		logger.Error("failed to create matrix codec", "error", err)
		return 1
	}
	defer codec.Close()
	store := filestore.New(cfg.DataDir, codec)

	var publishers []pipeline.ReportPublisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publishers = append(publishers, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaMetricsTopic)
	}

	evaluator := pipeline.NewEvaluator(store, store, pipeline.EvaluatorConfig{
		Bands:     manifest.Bands,
		Threshold: manifest.Threshold,
		Universe:  manifest.Universe,
	}, pipeline.Options{
		Workers: cfg.Workers,
		Clock:   clockwork.NewRealClock(),
		Logger:  logger,
		Metrics: metrics,
	}, publishers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPEnabled() {
		srv = httpadapter.NewServer(cfg.HTTPAddr, evaluator, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	reports, runErr := evaluator.Run(ctx, manifest.Dates)
	for _, r := range reports {
		for _, b := range r.Bands {
			logger.Info("band result", "date", r.Date, "band", b.Band.Label(),
				"precision", b.Precision, "recall", b.Recall, "f1", b.F1)
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
		logger.Error("evaluation interrupted", "error", runErr)
		return 1
	}
	if len(reports) == 0 {
		logger.Error("no date could be evaluated")
		return 1
	}
	logger.Info("evaluation complete", "dates", len(reports))
	return 0
}
