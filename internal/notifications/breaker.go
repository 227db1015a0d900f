package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/mentora/pkg/observability"
)

// ErrCircuitOpen is returned while the breaker rejects sends.
var ErrCircuitOpen = errors.New("email circuit breaker is open")

// BreakerConfig tunes the circuit breaker around a sender.
type BreakerConfig struct {
	Name             string
	FailureThreshold int
	Timeout          time.Duration
}

// BreakerSender stops calling a failing sender until the breaker half-opens.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker[struct{}]
	metrics observability.Metrics
}

// NewBreakerSender wraps next in a circuit breaker.
func NewBreakerSender(next Sender, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *BreakerSender {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "email"
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.FailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("email circuit breaker state changed",
				"sender", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerSender{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		metrics: metrics,
	}
}

func (s *BreakerSender) Send(ctx context.Context, email Email) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Send(ctx, email)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	if err != nil {
		s.metrics.Counter(observability.MetricNotificationsFailed, 1)
		return err
	}
	s.metrics.Counter(observability.MetricNotificationsSent, 1)
	return nil
}

// State reports the breaker state, for health output.
func (s *BreakerSender) State() string {
	return s.breaker.State().String()
}
