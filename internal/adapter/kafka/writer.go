package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kavousi-ar/ForecastNetEval/internal/config"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// BandMessage is the payload published for each evaluated band.
type BandMessage struct {
	Date        string             `json:"date"`
	Threshold   float64            `json:"threshold"`
	GeneratedAt time.Time          `json:"generated_at"`
	Result      domain.BandMetrics `json:"result"`
}

// Writer publishes evaluation results to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured metrics topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaMetricsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one message per evaluated band of report in a single
// WriteMessages call. Messages for one band share a key, so they land on the
// same partition.
func (w *Writer) Publish(ctx context.Context, report domain.Report) error {
	if len(report.Bands) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Bands))
	for i := range report.Bands {
		msg, err := serializeToMessage(report, report.Bands[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish report %s: %w", report.Date, err)
	}
	w.logger.Debug("report published", "date", report.Date, "messages", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one band result into a Kafka message.
func serializeToMessage(report domain.Report, bm domain.BandMetrics) (kafkago.Message, error) {
	data, err := json.Marshal(BandMessage{
		Date:        report.Date,
		Threshold:   report.Threshold,
		GeneratedAt: report.GeneratedAt,
		Result:      bm,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize band metrics: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(bm.Band.Label()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "date", Value: []byte(report.Date)},
			{Key: "band", Value: []byte(bm.Band.Label())},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
