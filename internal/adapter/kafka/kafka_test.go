package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/Kavousi-ar/ForecastNetEval/internal/config"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() domain.Report {
	return domain.Report{
		Date:        "2021-01-01",
		Threshold:   0.5,
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Bands: []domain.BandMetrics{
			{
				Band:           domain.NewBand(0, 500),
				Metrics:        domain.Metrics{Precision: 1, Recall: 0.5, F1: 2.0 / 3.0},
				TruePositives:  2,
				FalseNegatives: 2,
				TrueNegatives:  5,
			},
			{Band: domain.NewBand(500, 1000)},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	report := testReport()

	msg, err := serializeToMessage(report, report.Bands[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("0-500"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "date", msg.Headers[0].Key)
	assert.Equal(t, []byte("2021-01-01"), msg.Headers[0].Value)
	assert.Equal(t, "band", msg.Headers[1].Key)
	assert.Equal(t, []byte("0-500"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[2].Value)

	var got BandMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, report.Date, got.Date)
	assert.InDelta(t, 0.5, got.Threshold, 0)
	assert.True(t, report.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, report.Bands[0], got.Result)
}

func TestSerializeToMessage_Fields(t *testing.T) {
	report := testReport()
	msg, err := serializeToMessage(report, report.Bands[0])
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"tp":2`)
	assert.Contains(t, string(msg.Value), `"left_km":0`)
	assert.Contains(t, string(msg.Value), `"precision":1`)
}

func TestPublish_EmptyReport(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaMetricsTopic: "network-metrics"}, slog.Default())
	defer w.Close()

	// No bands means no network round trip.
	require.NoError(t, w.Publish(context.Background(), domain.Report{Date: "2021-01-01"}))
}
