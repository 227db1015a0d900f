package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestHealthRegistry(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		want     HealthStatus
	}{
		{name: "no checks", checkers: nil, want: HealthStatusHealthy},
		{
			name: "all healthy",
			checkers: map[string]HealthChecker{
				"database": PingChecker("database", HealthStatusUnhealthy, ok),
				"redis":    PingChecker("redis", HealthStatusDegraded, ok),
			},
			want: HealthStatusHealthy,
		},
		{
			name: "optional dependency down",
			checkers: map[string]HealthChecker{
				"database": PingChecker("database", HealthStatusUnhealthy, ok),
				"redis":    PingChecker("redis", HealthStatusDegraded, down),
			},
			want: HealthStatusDegraded,
		},
		{
			name: "database down",
			checkers: map[string]HealthChecker{
				"database": PingChecker("database", HealthStatusUnhealthy, down),
				"redis":    PingChecker("redis", HealthStatusDegraded, down),
			},
			want: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for name, checker := range tt.checkers {
				registry.Register(name, checker)
			}

			health := registry.Check(context.Background())

			assert.Equal(t, tt.want, health.Status)
			assert.Len(t, health.Checks, len(tt.checkers))
		})
	}
}

func TestPingChecker_Message(t *testing.T) {
	result := PingChecker("rabbitmq", HealthStatusDegraded, down)(context.Background())

	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Contains(t, result.Message, "rabbitmq unreachable")
}
