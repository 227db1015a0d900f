package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// parseOptionalTime reads an RFC 3339 timestamp; empty yields nil.
func parseOptionalTime(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", domain.ErrInvalidTime, field)
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
