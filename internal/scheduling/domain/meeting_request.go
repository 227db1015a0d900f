package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sharedDomain "github.com/felixgeelhaar/mentora/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	// DefaultDurationMinutes applies when a request does not name a duration.
	DefaultDurationMinutes = 30
	// MaxDurationMinutes caps a meeting at one day.
	MaxDurationMinutes = 24 * 60
	// MaxMessageLength is the message limit in characters.
	MaxMessageLength = 500
)

// MeetingRequest is a mentee's request to meet their assigned mentor.
type MeetingRequest struct {
	sharedDomain.BaseAggregateRoot
	menteeID        uuid.UUID
	mentorID        uuid.UUID
	requestedTime   time.Time
	durationMinutes int
	message         string
	status          Status
	mentorNotes     string
	confirmedTime   *time.Time
}

// NewMeetingRequest creates a Pending request. A zero durationMinutes takes
// the default.
func NewMeetingRequest(menteeID, mentorID uuid.UUID, requestedTime time.Time, durationMinutes int, message string, now time.Time) (*MeetingRequest, error) {
	if mentorID == uuid.Nil || mentorID == menteeID {
		return nil, ErrUnresolvedMentor
	}
	if requestedTime.IsZero() {
		return nil, fmt.Errorf("%w: requestedTime", ErrMissingField)
	}
	if requestedTime.Before(now) {
		return nil, fmt.Errorf("%w: requested time is in the past", ErrInvalidTime)
	}
	if durationMinutes == 0 {
		durationMinutes = DefaultDurationMinutes
	}
	if durationMinutes < 0 {
		return nil, fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidField)
	}
	if durationMinutes > MaxDurationMinutes {
		return nil, fmt.Errorf("%w: durationMinutes exceeds %d", ErrInvalidField, MaxDurationMinutes)
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidField, MaxMessageLength)
	}

	m := &MeetingRequest{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		menteeID:          menteeID,
		mentorID:          mentorID,
		requestedTime:     requestedTime.UTC(),
		durationMinutes:   durationMinutes,
		message:           message,
		status:            StatusPending,
	}
	m.AddDomainEvent(NewMeetingRequested(m))
	return m, nil
}

// RehydrateMeetingRequest rebuilds a request from storage.
func RehydrateMeetingRequest(
	id, menteeID, mentorID uuid.UUID,
	requestedTime time.Time,
	durationMinutes int,
	message string,
	status Status,
	mentorNotes string,
	confirmedTime *time.Time,
	createdAt, updatedAt time.Time,
) *MeetingRequest {
	return &MeetingRequest{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt),
		menteeID:          menteeID,
		mentorID:          mentorID,
		requestedTime:     requestedTime,
		durationMinutes:   durationMinutes,
		message:           message,
		status:            status,
		mentorNotes:       mentorNotes,
		confirmedTime:     confirmedTime,
	}
}

func (m *MeetingRequest) MenteeID() uuid.UUID      { return m.menteeID }
func (m *MeetingRequest) MentorID() uuid.UUID      { return m.mentorID }
func (m *MeetingRequest) RequestedTime() time.Time { return m.requestedTime }
func (m *MeetingRequest) DurationMinutes() int     { return m.durationMinutes }
func (m *MeetingRequest) Message() string          { return m.message }
func (m *MeetingRequest) Status() Status           { return m.status }
func (m *MeetingRequest) MentorNotes() string      { return m.mentorNotes }

// ConfirmedTime is set only while the request is Confirmed.
func (m *MeetingRequest) ConfirmedTime() *time.Time {
	if m.confirmedTime == nil {
		return nil
	}
	t := *m.confirmedTime
	return &t
}

// IsParticipant reports whether userID is the mentee or the mentor.
func (m *MeetingRequest) IsParticipant(userID uuid.UUID) bool {
	return userID == m.menteeID || userID == m.mentorID
}

// TransitionTo moves the request to target. Blank notes keep the existing
// notes; confirmedTime is kept only when target is Confirmed.
func (m *MeetingRequest) TransitionTo(target Status, mentorNotes string, confirmedTime *time.Time, now time.Time) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	if !m.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidStatus, m.status, target)
	}
	if target == StatusConfirmed && (confirmedTime == nil || confirmedTime.IsZero()) {
		return ErrMissingConfirmedTime
	}

	previous := m.status
	m.status = target
	if notes := strings.TrimSpace(mentorNotes); notes != "" {
		m.mentorNotes = notes
	}
	if target == StatusConfirmed {
		t := confirmedTime.UTC()
		m.confirmedTime = &t
	} else {
		m.confirmedTime = nil
	}
	m.Touch(now)
	m.AddDomainEvent(NewMeetingStatusChanged(m, previous))
	return nil
}

// IsUpcoming is true for Pending requests and Confirmed ones not yet due.
func (m *MeetingRequest) IsUpcoming(now time.Time) bool {
	switch m.status {
	case StatusPending:
		return true
	case StatusConfirmed:
		return m.confirmedTime != nil && !m.confirmedTime.Before(now)
	default:
		return false
	}
}

// IsPast is true for closed requests and Confirmed ones already due.
func (m *MeetingRequest) IsPast(now time.Time) bool {
	switch m.status {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	case StatusConfirmed:
		return m.confirmedTime != nil && m.confirmedTime.Before(now)
	default:
		return false
	}
}
