package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/pkg/observability"
)

const userCacheKeyPrefix = "mentora:directory:user:"

// redisCache is the subset of *redis.Client the directory cache uses.
type redisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCachedDirectory caches FindByID lookups in Redis. Any Redis failure
// falls through to the wrapped repository.
type RedisCachedDirectory struct {
	next    domain.UserRepository
	client  redisCache
	ttl     time.Duration
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewRedisCachedDirectory wraps next with a Redis cache.
func NewRedisCachedDirectory(next domain.UserRepository, client redisCache, ttl time.Duration, logger *slog.Logger, metrics observability.Metrics) *RedisCachedDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCachedDirectory{
		next:    next,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

type cachedUser struct {
	ID               uuid.UUID  `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	AssignedMentorID *uuid.UUID `json:"assigned_mentor_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func userCacheKey(id uuid.UUID) string {
	return userCacheKeyPrefix + id.String()
}

// FindByID serves from cache when possible. Absent users are not cached.
func (d *RedisCachedDirectory) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := userCacheKey(id)

	raw, err := d.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if err := json.Unmarshal(raw, &cu); err == nil {
			d.metrics.Counter(observability.MetricDirectoryCacheLookups, 1, observability.T("result", "hit"))
			return domain.RehydrateUser(cu.ID, cu.FirstName, cu.LastName, cu.Email, domain.Role(cu.Role), cu.AssignedMentorID, cu.CreatedAt, cu.UpdatedAt), nil
		}
		d.logger.Warn("discarding undecodable directory cache entry", "user_id", id)
		d.metrics.Counter(observability.MetricDirectoryCacheLookups, 1, observability.T("result", "error"))
	case errors.Is(err, redis.Nil):
		d.metrics.Counter(observability.MetricDirectoryCacheLookups, 1, observability.T("result", "miss"))
	default:
		d.logger.Warn("directory cache unavailable", "user_id", id, "error", err)
		d.metrics.Counter(observability.MetricDirectoryCacheLookups, 1, observability.T("result", "error"))
	}

	user, err := d.next.FindByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}
	d.store(ctx, user)
	return user, nil
}

// FindByIDs goes straight to the wrapped repository.
func (d *RedisCachedDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	return d.next.FindByIDs(ctx, ids)
}

// Save writes through and drops the cached entry.
func (d *RedisCachedDirectory) Save(ctx context.Context, user *domain.User) error {
	if err := d.next.Save(ctx, user); err != nil {
		return err
	}
	if err := d.client.Del(ctx, userCacheKey(user.ID())).Err(); err != nil {
		d.logger.Warn("failed to invalidate directory cache", "user_id", user.ID(), "error", err)
	}
	return nil
}

func (d *RedisCachedDirectory) List(ctx context.Context) ([]*domain.User, error) {
	return d.next.List(ctx)
}

func (d *RedisCachedDirectory) store(ctx context.Context, user *domain.User) {
	payload, err := json.Marshal(cachedUser{
		ID:               user.ID(),
		FirstName:        user.FirstName(),
		LastName:         user.LastName(),
		Email:            user.Email(),
		Role:             string(user.Role()),
		AssignedMentorID: user.AssignedMentorID(),
		CreatedAt:        user.CreatedAt(),
		UpdatedAt:        user.UpdatedAt(),
	})
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, userCacheKey(user.ID()), payload, d.ttl).Err(); err != nil {
		d.logger.Warn("failed to populate directory cache", "user_id", user.ID(), "error", err)
	}
}
