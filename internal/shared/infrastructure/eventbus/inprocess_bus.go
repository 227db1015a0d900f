package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// InProcessBus delivers published events synchronously to local consumers.
// It stands in for RabbitMQ in local mode. Consumer failures are logged and
// never returned to the publisher.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewInProcessBus creates a bus dispatching through registry.
func NewInProcessBus(registry *ConsumerRegistry, logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{registry: registry, logger: logger}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it before returning.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event, err := Decode(payload, routingKey)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}

	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "in-process dispatch failed",
			"routing_key", routingKey,
			"event_id", event.EventID,
			"error", err,
		)
	}
	return nil
}

// Close is a no-op.
func (b *InProcessBus) Close() error {
	return nil
}

// NoopPublisher drops every event. Used when a process only writes to the
// outbox and another process relays it.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NoopPublisher) Close() error { return nil }
