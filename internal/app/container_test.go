package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	identityDomain "github.com/felixgeelhaar/mentora/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/mentora/internal/identity/infrastructure/persistence"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	schedulingDomain "github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:              "test",
		LogLevel:            "error",
		SQLitePath:          filepath.Join(t.TempDir(), "mentora.db"),
		DirectoryCacheTTL:   time.Minute,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     10,
		OutboxMaxRetries:    3,
		JWTIssuer:           "mentora",
		JWTTTL:              time.Hour,
		EmailProvider:       "log",
		EmailFromName:       "SIP Portal",
		EmailFromAddress:    "no-reply@example.com",
		EmailBreakerFailure: 3,
		EmailBreakerTimeout: time.Second,
		MetricsNamespace:    "mentora_test",
	}
}

func TestNewContainer_LocalMode(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewContainer(ctx, localConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.False(t, c.UsesRabbitMQ())
	assert.Nil(t, c.RedisClient)
	assert.NotNil(t, c.MetricsHandler())

	health := c.Health.Check(ctx)
	assert.Equal(t, "healthy", string(health.Status))

	now := time.Now().UTC()
	mentor := identityDomain.RehydrateUser(uuid.New(), "Grace", "Hopper", "grace@example.com", identityDomain.RoleMentor, nil, now, now)
	mentorID := mentor.ID()
	mentee := identityDomain.RehydrateUser(uuid.New(), "Linus", "Student", "linus@example.com", identityDomain.RoleMentee, &mentorID, now, now)
	require.NoError(t, c.UserRepo.Save(ctx, mentor))
	require.NoError(t, c.UserRepo.Save(ctx, mentee))

	meeting, err := c.RequestMeetingHandler.Handle(ctx, commands.RequestMeetingCommand{
		Caller:          schedulingDomain.Caller{ID: mentee.ID(), Role: mentee.Role()},
		RequestedTime:   now.Add(24 * time.Hour),
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	stored, err := c.MeetingRepo.FindByID(ctx, meeting.ID())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, schedulingDomain.StatusPending, stored.Status())

	pending, err := c.OutboxRepo.GetUnpublished(ctx, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))

	pending, err = c.OutboxRepo.GetUnpublished(ctx, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNewContainer_TokenSecretFallback(t *testing.T) {
	c, err := NewContainer(context.Background(), localConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	userID := uuid.New()
	raw, err := c.Tokens.Issue(userID, "Mentee")
	require.NoError(t, err)

	got, err := c.Tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestCacheDirectory_RoutesUserWrites(t *testing.T) {
	ctx := context.Background()
	users := identityPersistence.NewInMemoryUserRepository()
	c := &Container{
		Config:   localConfig(t),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  observability.NewInMemoryMetrics(),
		UserRepo: users,
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	c.cacheDirectory(client)

	require.IsType(t, &identityPersistence.RedisCachedDirectory{}, c.UserRepo)
	assert.Same(t, c.UserRepo, c.Directory)

	now := time.Now().UTC()
	mentor := identityDomain.RehydrateUser(uuid.New(), "Grace", "Hopper", "grace@example.com", identityDomain.RoleMentor, nil, now, now)
	require.NoError(t, c.UserRepo.Save(ctx, mentor))

	stored, err := users.FindByID(ctx, mentor.ID())
	require.NoError(t, err)
	require.NotNil(t, stored)

	found, err := c.Directory.FindByID(ctx, mentor.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "grace@example.com", found.Email())
}
