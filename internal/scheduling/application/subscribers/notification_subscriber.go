package subscribers

import (
	"context"
	"log/slog"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/notifications"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// NotificationSubscriber emails the other party after a meeting request is
// created or changes status. Delivery is best effort: failures are logged
// and the event is acknowledged.
type NotificationSubscriber struct {
	directory identity.Directory
	composer  *notifications.Composer
	sender    notifications.Sender
	logger    *slog.Logger
}

// NewNotificationSubscriber creates a new notification subscriber.
func NewNotificationSubscriber(
	directory identity.Directory,
	composer *notifications.Composer,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationSubscriber{
		directory: directory,
		composer:  composer,
		sender:    sender,
		logger:    logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (s *NotificationSubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyMeetingRequested,
		domain.RoutingKeyMeetingStatusChanged,
	}
}

// Handle processes an event.
func (s *NotificationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	switch event.RoutingKey {
	case domain.RoutingKeyMeetingRequested:
		s.handleMeetingRequested(ctx, event)
	case domain.RoutingKeyMeetingStatusChanged:
		s.handleStatusChanged(ctx, event)
	default:
		s.logger.Warn("unknown event type",
			"routing_key", event.RoutingKey,
		)
	}
	return nil
}

// MeetingRequestedPayload is the payload of scheduling.meeting.requested.
type MeetingRequestedPayload struct {
	MeetingID       uuid.UUID `json:"meeting_id"`
	MenteeID        uuid.UUID `json:"mentee_id"`
	MentorID        uuid.UUID `json:"mentor_id"`
	RequestedTime   time.Time `json:"requested_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Message         string    `json:"message"`
}

func (s *NotificationSubscriber) handleMeetingRequested(ctx context.Context, event *eventbus.ConsumedEvent) {
	var payload MeetingRequestedPayload
	if err := event.DecodePayload(&payload); err != nil {
		s.logger.Error("failed to decode meeting requested payload",
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	mentee, mentor, ok := s.participants(ctx, payload.MeetingID, payload.MenteeID, payload.MentorID)
	if !ok {
		return
	}

	email := s.composer.MeetingRequest(person(mentor), person(mentee), notifications.MeetingRequestDetails{
		RequestedTime:   payload.RequestedTime,
		DurationMinutes: payload.DurationMinutes,
		Message:         payload.Message,
	})
	s.send(ctx, payload.MeetingID, email)
}

// MeetingStatusChangedPayload is the payload of scheduling.meeting.status_changed.
type MeetingStatusChangedPayload struct {
	MeetingID     uuid.UUID  `json:"meeting_id"`
	MenteeID      uuid.UUID  `json:"mentee_id"`
	MentorID      uuid.UUID  `json:"mentor_id"`
	Status        string     `json:"status"`
	MentorNotes   string     `json:"mentor_notes"`
	ConfirmedTime *time.Time `json:"confirmed_time"`
}

func (s *NotificationSubscriber) handleStatusChanged(ctx context.Context, event *eventbus.ConsumedEvent) {
	var payload MeetingStatusChangedPayload
	if err := event.DecodePayload(&payload); err != nil {
		s.logger.Error("failed to decode status changed payload",
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	mentee, mentor, ok := s.participants(ctx, payload.MeetingID, payload.MenteeID, payload.MentorID)
	if !ok {
		return
	}

	details := notifications.StatusUpdateDetails{
		Status:      payload.Status,
		MentorNotes: payload.MentorNotes,
	}
	if payload.Status == string(domain.StatusConfirmed) {
		details.ConfirmedTime = payload.ConfirmedTime
	}
	s.send(ctx, payload.MeetingID, s.composer.StatusUpdate(person(mentee), person(mentor), details))
}

func (s *NotificationSubscriber) participants(ctx context.Context, meetingID, menteeID, mentorID uuid.UUID) (*identity.User, *identity.User, bool) {
	users, err := s.directory.FindByIDs(ctx, []uuid.UUID{menteeID, mentorID})
	if err != nil {
		s.logger.Warn("failed to load meeting participants",
			"meeting_id", meetingID,
			"error", err,
		)
		return nil, nil, false
	}
	mentee, mentor := users[menteeID], users[mentorID]
	if mentee == nil || mentor == nil {
		s.logger.Warn("meeting participant not found, skipping notification",
			"meeting_id", meetingID,
			"mentee_found", mentee != nil,
			"mentor_found", mentor != nil,
		)
		return nil, nil, false
	}
	return mentee, mentor, true
}

func (s *NotificationSubscriber) send(ctx context.Context, meetingID uuid.UUID, email notifications.Email) {
	if err := s.sender.Send(ctx, email); err != nil {
		s.logger.Warn("failed to send notification",
			"meeting_id", meetingID,
			"to", email.To,
			"error", err,
		)
		return
	}
	s.logger.Info("notification sent",
		"meeting_id", meetingID,
		"to", email.To,
	)
}

func person(u *identity.User) notifications.Person {
	return notifications.Person{
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Email:     u.Email(),
	}
}
