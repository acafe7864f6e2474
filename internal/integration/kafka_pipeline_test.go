//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/Kavousi-ar/ForecastNetEval/internal/adapter/filestore"
	"github.com/Kavousi-ar/ForecastNetEval/internal/adapter/kafka"
	"github.com/Kavousi-ar/ForecastNetEval/internal/config"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/matrixio"
	"github.com/Kavousi-ar/ForecastNetEval/internal/observability"
	"github.com/Kavousi-ar/ForecastNetEval/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testMetricsTopic = "test-network-metrics"
	testDate         = "2021-01-01"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("forecastnet-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func seedSeries(ctx context.Context, t *testing.T, store *filestore.Store) {
	t.Helper()
	ds := domain.Dataset{
		Axis: []string{"t0", "t1", "t2", "t3", "t4", "t5"},
		Series: map[domain.Point][]float64{
			{Lat: 40, Lon: -100}: {1, 3, 2, 5, 4, 6},
			{Lat: 40, Lon: -99}:  {2, 5, 3, 7, 6, 9},
			{Lat: 41, Lon: -100}: {6, 4, 5, 1, 3, 0},
			{Lat: 45, Lon: -90}:  {1, 2, 1, 2, 1, 2},
		},
	}
	require.NoError(t, store.SaveSeries(ctx, testDate, domain.RoleReference, ds))
	require.NoError(t, store.SaveSeries(ctx, testDate, domain.RolePredicted, ds))
}

// TestBuildEvaluatePublish runs a build and an evaluation against the file
// store and reads the published band results back from Kafka.
func TestBuildEvaluatePublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testMetricsTopic)

	codec, err := matrixio.NewCodec(2)
	require.NoError(t, err)
	t.Cleanup(codec.Close)
	store := filestore.New(t.TempDir(), codec)
	seedSeries(ctx, t, store)

	bands := []domain.Band{domain.NewBand(0, 300), domain.NewBand(300, 2000)}
	opts := pipeline.Options{
		Workers: 2,
		Clock:   clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)),
		Logger:  discardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	}

	builder := pipeline.NewBuilder(store, store, store, bands, opts)
	results, err := builder.Run(ctx, []string{testDate}, []domain.Role{domain.RoleReference, domain.RolePredicted})
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.Len(t, r.Networks, 2)
	}

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaMetricsTopic: testMetricsTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	evaluator := pipeline.NewEvaluator(store, store, pipeline.EvaluatorConfig{Bands: bands, Threshold: 0.5}, opts, writer)
	reports, err := evaluator.Run(ctx, []string{testDate})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	metrics, err := store.LoadMetrics(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testMetricsTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	got := make(map[string]kafka.BandMessage)
	for len(got) < len(bands) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from metrics topic")

		var bm kafka.BandMessage
		require.NoError(t, json.Unmarshal(msg.Value, &bm))
		got[string(msg.Key)] = bm
	}

	for _, b := range bands {
		bm, ok := got[b.Label()]
		require.True(t, ok, "missing message for band %s", b.Label())
		assert.Equal(t, testDate, bm.Date)
		assert.Equal(t, b, bm.Result.Band)
	}
	// Identical inputs agree wherever the reference has an edge.
	near := got[bands[0].Label()].Result
	if near.TruePositives > 0 {
		assert.Equal(t, domain.Metrics{Precision: 1, Recall: 1, F1: 1}, near.Metrics)
	}
	assert.Zero(t, near.FalsePositives)
	assert.Zero(t, near.FalseNegatives)
}
