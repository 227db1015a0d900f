package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/mentora/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "MeetingRequest"

const (
	RoutingKeyMeetingRequested     = "scheduling.meeting.requested"
	RoutingKeyMeetingStatusChanged = "scheduling.meeting.status_changed"
)

// MeetingRequested is emitted when a mentee submits a request.
type MeetingRequested struct {
	sharedDomain.BaseEvent
	MeetingID       uuid.UUID `json:"meeting_id"`
	MenteeID        uuid.UUID `json:"mentee_id"`
	MentorID        uuid.UUID `json:"mentor_id"`
	RequestedTime   time.Time `json:"requested_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Message         string    `json:"message,omitempty"`
}

// NewMeetingRequested creates a MeetingRequested event.
func NewMeetingRequested(m *MeetingRequest) *MeetingRequested {
	return &MeetingRequested{
		BaseEvent:       sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyMeetingRequested, m.CreatedAt()),
		MeetingID:       m.ID(),
		MenteeID:        m.MenteeID(),
		MentorID:        m.MentorID(),
		RequestedTime:   m.RequestedTime(),
		DurationMinutes: m.DurationMinutes(),
		Message:         m.Message(),
	}
}

// MeetingStatusChanged is emitted after every transition.
type MeetingStatusChanged struct {
	sharedDomain.BaseEvent
	MeetingID      uuid.UUID  `json:"meeting_id"`
	MenteeID       uuid.UUID  `json:"mentee_id"`
	MentorID       uuid.UUID  `json:"mentor_id"`
	PreviousStatus string     `json:"previous_status"`
	Status         string     `json:"status"`
	MentorNotes    string     `json:"mentor_notes,omitempty"`
	ConfirmedTime  *time.Time `json:"confirmed_time,omitempty"`
}

// NewMeetingStatusChanged creates a MeetingStatusChanged event.
func NewMeetingStatusChanged(m *MeetingRequest, previous Status) *MeetingStatusChanged {
	return &MeetingStatusChanged{
		BaseEvent:      sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyMeetingStatusChanged, m.UpdatedAt()),
		MeetingID:      m.ID(),
		MenteeID:       m.MenteeID(),
		MentorID:       m.MentorID(),
		PreviousStatus: string(previous),
		Status:         string(m.Status()),
		MentorNotes:    m.MentorNotes(),
		ConfirmedTime:  m.ConfirmedTime(),
	}
}
