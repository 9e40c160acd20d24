package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/landlord-risk-etl/internal/config"
	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/couchcryptid/landlord-risk-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Record types carried in the record_type header.
const (
	RecordProperty = "property"
	RecordLandlord = "landlord"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes scored properties and landlords to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Write serializes every property and landlord row of res and publishes
// them in a single WriteMessages call.
func (w *Writer) Write(ctx context.Context, res *domain.Result) error {
	msgs := make([]kafkago.Message, 0, len(res.Properties)+len(res.Landlords))
	for i := range res.Properties {
		p := &res.Properties[i]
		msg, err := serializeToMessage(RecordProperty, p.Key, p, res)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	for i := range res.Landlords {
		l := &res.Landlords[i]
		msg, err := serializeToMessage(RecordLandlord, l.Landlord, l, res)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish risk records: %w", err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Info("risk records published", "messages", len(msgs), "run_id", res.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one output row into a Kafka message keyed by
// key, so every record for the same property or landlord lands on the same
// partition.
func serializeToMessage(recordType, key string, record any, res *domain.Result) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s record: %w", recordType, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_type", Value: []byte(recordType)},
			{Key: "run_id", Value: []byte(res.RunID)},
			{Key: "computed_at", Value: []byte(res.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
