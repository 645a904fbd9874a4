// Package publisher emits decision events to Kafka for downstream compliance
// and SIEM consumers. The audit store remains the source of truth; this
// stream is observability fan-out and is fire-and-forget by design.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Event is one authorization or execution outcome on the wire.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	AuditID    string    `json:"audit_id"`
	ActionType string    `json:"action_type"`
	ExecutorID string    `json:"executor_id"`
	// Decision mirrors the audit status at emission time:
	// allowed, requires_approval, executed, rejected.
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// Publisher produces events to a single topic. A nil *Publisher is valid and
// drops all events, so wiring stays unconditional at call sites.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the given brokers. Returns (nil, nil) when no brokers are
// configured.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Emit produces one event asynchronously. Delivery failures are logged, never
// surfaced: the audit record already holds the authoritative outcome.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "encode decision event", "error", err)
		}
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.AuditID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Warn("publish decision event",
				"error", err,
				"audit_id", event.AuditID,
				"decision", event.Decision,
			)
		}
	})
}

// Close flushes buffered events and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
