package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mentora/internal/identity/domain"
)

// InMemoryUserRepository keeps users in a map. Used by tests and the MCP
// and CLI dry runs.
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

// NewInMemoryUserRepository creates an empty repository seeded with users.
func NewInMemoryUserRepository(users ...*domain.User) *InMemoryUserRepository {
	r := &InMemoryUserRepository{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.users[u.ID()] = u
	}
	return r
}

func (r *InMemoryUserRepository) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID()] = user
	return nil
}

func (r *InMemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[id], nil
}

func (r *InMemoryUserRepository) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[uuid.UUID]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (r *InMemoryUserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Role() != users[j].Role() {
			return users[i].Role() < users[j].Role()
		}
		return users[i].LastName() < users[j].LastName()
	})
	return users, nil
}
