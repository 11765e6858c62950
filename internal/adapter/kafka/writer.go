package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-monitor-service/internal/config"
	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// Writer publishes alert events to the alerts topic.
// It implements notify.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured alerts topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Notify serializes the event and writes it keyed by reading ID or date, so
// alerts about the same subject land on the same partition.
func (w *Writer) Notify(ctx context.Context, event domain.AlertEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AlertEvent into a Kafka message.
func serializeToMessage(event domain.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_kind", Value: []byte(event.Kind)},
			{Key: "status", Value: []byte(event.Verdict.Status)},
			{Key: "emitted_at", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
