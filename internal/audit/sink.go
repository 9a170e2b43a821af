// Package audit records access decisions for compliance review. Recording is
// fire-and-forget: sink failures are logged and never propagate to the
// access decision itself.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/infra"
)

// Sink records audit events.
type Sink interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// KafkaSink publishes audit events to a Kafka topic, keyed by scan id so all
// events of one access attempt land on the same partition.
type KafkaSink struct {
	producer *infra.KafkaProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaSink creates a Kafka-backed audit sink.
func NewKafkaSink(producer *infra.KafkaProducer, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

// Record publishes the event. Failures are logged, not returned.
func (s *KafkaSink) Record(ctx context.Context, event domain.AuditEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal audit event", "error", err, "event_type", event.Type)
		return
	}

	key := []byte(event.ScanID)
	if len(key) == 0 {
		key = []byte(event.UserID.String())
	}

	if err := s.producer.Publish(ctx, s.topic, key, payload); err != nil {
		s.logger.Error("publish audit event",
			"error", err,
			"event_type", event.Type,
			"scan_id", event.ScanID,
		)
	}
}

// NopSink discards all events.
type NopSink struct{}

// Record discards the event.
func (NopSink) Record(context.Context, domain.AuditEvent) {}
