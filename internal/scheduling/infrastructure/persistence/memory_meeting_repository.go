package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
)

// InMemoryMeetingRepository keeps meeting requests in a map.
type InMemoryMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[uuid.UUID]*domain.MeetingRequest
}

// NewInMemoryMeetingRepository creates an empty repository.
func NewInMemoryMeetingRepository() *InMemoryMeetingRepository {
	return &InMemoryMeetingRepository{meetings: make(map[uuid.UUID]*domain.MeetingRequest)}
}

func (r *InMemoryMeetingRepository) Save(_ context.Context, m *domain.MeetingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meetings[m.ID()] = m
	return nil
}

func (r *InMemoryMeetingRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.MeetingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meetings[id], nil
}

func (r *InMemoryMeetingRepository) Find(_ context.Context, filter domain.ScheduleFilter) ([]*domain.MeetingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.MeetingRequest, 0)
	for _, m := range r.meetings {
		if filter.Matches(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().After(out[j].CreatedAt())
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	return out, nil
}
