package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/mentora/pkg/observability"
)

// ConsumerRegistry dispatches events to the consumers registered for their routing key.
type ConsumerRegistry struct {
	mu        sync.RWMutex
	consumers map[string][]EventConsumer
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewConsumerRegistry creates an empty registry. A nil metrics discards measurements.
func NewConsumerRegistry(logger *slog.Logger, metrics observability.Metrics) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ConsumerRegistry{
		consumers: make(map[string][]EventConsumer),
		logger:    logger,
		metrics:   metrics,
	}
}

// Register adds a consumer under each of its event types.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range consumer.EventTypes() {
		r.consumers[eventType] = append(r.consumers[eventType], consumer)
		r.logger.Debug("registered consumer", "event_type", eventType)
	}
}

// EventTypes returns every routing key with at least one consumer.
func (r *ConsumerRegistry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.consumers))
	for t := range r.consumers {
		types = append(types, t)
	}
	return types
}

// Dispatch hands the event to every consumer of its routing key. All
// consumers run even when one fails; the failures are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	r.mu.RLock()
	consumers := r.consumers[event.RoutingKey]
	r.mu.RUnlock()

	if len(consumers) == 0 {
		r.logger.DebugContext(ctx, "no consumers for event", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		outcome := "success"
		if err := consumer.Handle(ctx, event); err != nil {
			outcome = "error"
			r.logger.ErrorContext(ctx, "consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
		r.metrics.Counter(observability.MetricEventsConsumed, 1,
			observability.T("routing_key", event.RoutingKey),
			observability.T("outcome", outcome),
		)
	}
	return errors.Join(errs...)
}
