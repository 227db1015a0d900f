package domain

import (
	"context"

	"github.com/google/uuid"
)

// Directory is the read-only view of users the scheduling core depends on.
type Directory interface {
	// FindByID returns nil, nil when the user does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDs returns the users that exist, keyed by ID.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
}

// UserRepository adds the write and listing side used for seeding.
type UserRepository interface {
	Directory
	Save(ctx context.Context, user *User) error
	List(ctx context.Context) ([]*User, error)
}

// UniqueIDs drops duplicates and nil IDs, keeping first-seen order.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
