package outbox_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mentora/internal/shared/application"
	"github.com/felixgeelhaar/mentora/internal/shared/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/observability"
)

type noteEvent struct {
	domain.BaseEvent
	Note string `json:"note"`
}

func newEvent(routingKey string, at time.Time) *noteEvent {
	return &noteEvent{
		BaseEvent: domain.NewBaseEvent(uuid.New(), "MeetingRequest", routingKey, at),
		Note:      "n",
	}
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestNewMessage(t *testing.T) {
	event := newEvent("scheduling.meeting.requested", time.Now())
	event.SetMetadata(domain.EventMetadata{UserID: uuid.New()})

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, "MeetingRequest", msg.AggregateType)
	assert.Equal(t, "scheduling.meeting.requested", msg.RoutingKey)
	assert.False(t, msg.IsPublished())

	decoded, err := eventbus.Decode(msg.Payload, "")
	require.NoError(t, err)
	assert.Equal(t, event.EventID(), decoded.EventID)
	assert.Equal(t, event.AggregateID(), decoded.AggregateID)
	assert.Equal(t, event.Metadata().UserID, decoded.Metadata.UserID)
	assert.JSONEq(t, `{"note":"n"}`, string(decoded.Payload))
}

func TestProcessor_ProcessOnce(t *testing.T) {
	ctx := context.Background()
	cfg := outbox.ProcessorConfig{BatchSize: 10, MaxRetries: 2, RetryBackoffBase: time.Millisecond, RetryBackoffMax: time.Millisecond}

	t.Run("publishes and marks messages", func(t *testing.T) {
		repo := outbox.NewInMemoryRepository()
		msgs, err := outbox.NewMessages([]domain.DomainEvent{
			newEvent("a", time.Now()),
			newEvent("b", time.Now()),
		})
		require.NoError(t, err)
		require.NoError(t, repo.SaveBatch(ctx, msgs))
		publisher := &fakePublisher{}
		metrics := observability.NewInMemoryMetrics()

		p := outbox.NewProcessor(repo, publisher, cfg, nil, metrics)
		require.NoError(t, p.ProcessOnce(ctx))

		assert.Equal(t, []string{"a", "b"}, publisher.published)
		for _, m := range repo.Messages() {
			assert.True(t, m.IsPublished())
		}
		assert.Equal(t, uint64(2), p.GetStats().PublishedCount)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsPublished, observability.T("routing_key", "a")))
	})

	t.Run("retries then dead-letters", func(t *testing.T) {
		repo := outbox.NewInMemoryRepository()
		msgs, err := outbox.NewMessages([]domain.DomainEvent{newEvent("a", time.Now())})
		require.NoError(t, err)
		require.NoError(t, repo.SaveBatch(ctx, msgs))
		publisher := &fakePublisher{err: errors.New("broker down")}

		p := outbox.NewProcessor(repo, publisher, cfg, nil, nil)
		require.NoError(t, p.ProcessOnce(ctx))

		m := repo.Messages()[0]
		assert.Equal(t, 1, m.RetryCount)
		require.NotNil(t, m.LastError)
		assert.Equal(t, "broker down", *m.LastError)
		assert.Nil(t, m.DeadLetteredAt)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, p.ProcessOnce(ctx))

		m = repo.Messages()[0]
		assert.NotNil(t, m.DeadLetteredAt)
		stats := p.GetStats()
		assert.Equal(t, uint64(1), stats.FailedCount)
		assert.Equal(t, uint64(1), stats.DeadCount)
		assert.Equal(t, "broker down", stats.LastError)
	})

	t.Run("start and stop", func(t *testing.T) {
		repo := outbox.NewInMemoryRepository()
		p := outbox.NewProcessor(repo, &fakePublisher{}, outbox.ProcessorConfig{PollInterval: time.Millisecond, BatchSize: 1}, nil, nil)

		p.Start(ctx)
		p.Start(ctx)
		assert.True(t, p.IsRunning())
		p.Stop()
		assert.False(t, p.IsRunning())
	})
}

func TestInMemoryRepository_DeleteOld(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewInMemoryRepository()
	msgs, err := outbox.NewMessages([]domain.DomainEvent{newEvent("a", time.Now()), newEvent("b", time.Now())})
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(ctx, msgs))
	require.NoError(t, repo.MarkPublished(ctx, msgs[0].ID, time.Now().Add(-48*time.Hour)))

	p := outbox.NewProcessor(repo, &fakePublisher{}, outbox.DefaultProcessorConfig(), nil, nil)
	deleted, err := p.Cleanup(ctx, 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, repo.Messages(), 1)
}

func newSQLiteRepository(t *testing.T) (*outbox.SQLRepository, database.Connection) {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "outbox.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Migrate(ctx, conn))
	return outbox.NewSQLRepository(conn), conn
}

func TestSQLRepository(t *testing.T) {
	ctx := context.Background()
	repo, conn := newSQLiteRepository(t)
	now := time.Now().UTC()

	msgs, err := outbox.NewMessages([]domain.DomainEvent{
		newEvent("scheduling.meeting.requested", now),
		newEvent("scheduling.meeting.status_changed", now),
	})
	require.NoError(t, err)

	err = application.WithUnitOfWork(ctx, database.NewUnitOfWork(conn), func(txCtx context.Context) error {
		return repo.SaveBatch(txCtx, msgs)
	})
	require.NoError(t, err)
	assert.NotZero(t, msgs[0].ID)
	assert.Greater(t, msgs[1].ID, msgs[0].ID)

	pending, err := repo.GetUnpublished(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, msgs[0].EventID, pending[0].EventID)
	assert.Equal(t, msgs[0].AggregateID, pending[0].AggregateID)
	assert.JSONEq(t, string(msgs[0].Payload), string(pending[0].Payload))
	assert.WithinDuration(t, now, pending[0].CreatedAt, time.Millisecond)

	require.NoError(t, repo.MarkPublished(ctx, msgs[0].ID, now.Add(-72*time.Hour)))
	require.NoError(t, repo.MarkFailed(ctx, msgs[1].ID, "broker down", now.Add(time.Minute)))

	pending, err = repo.GetUnpublished(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = repo.GetUnpublished(ctx, now.Add(2*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "broker down", *pending[0].LastError)

	require.NoError(t, repo.MarkDead(ctx, msgs[1].ID, "gave up", now))
	pending, err = repo.GetUnpublished(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	deleted, err := repo.DeleteOld(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
