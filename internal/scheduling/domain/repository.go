package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScheduleFilter selects meeting requests for listing. Nil fields do not
// filter. Upcoming and Past together match the union of both windows.
type ScheduleFilter struct {
	MenteeID *uuid.UUID
	MentorID *uuid.UUID
	Status   *Status
	Upcoming bool
	Past     bool
	Now      time.Time
}

// Matches applies the filter to a single request.
func (f ScheduleFilter) Matches(m *MeetingRequest) bool {
	if f.MenteeID != nil && m.MenteeID() != *f.MenteeID {
		return false
	}
	if f.MentorID != nil && m.MentorID() != *f.MentorID {
		return false
	}
	if f.Status != nil && m.Status() != *f.Status {
		return false
	}
	if f.Upcoming || f.Past {
		return (f.Upcoming && m.IsUpcoming(f.Now)) || (f.Past && m.IsPast(f.Now))
	}
	return true
}

// Repository persists meeting requests.
type Repository interface {
	Save(ctx context.Context, m *MeetingRequest) error
	// FindByID returns nil, nil when the request does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*MeetingRequest, error)
	// Find returns matching requests, newest first.
	Find(ctx context.Context, filter ScheduleFilter) ([]*MeetingRequest, error)
}
