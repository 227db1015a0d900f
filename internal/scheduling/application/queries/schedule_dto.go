package queries

import (
	"context"
	"fmt"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ScheduleDTO is a meeting request joined with its participants' display data.
type ScheduleDTO struct {
	ID              uuid.UUID        `json:"id"`
	Mentee          identity.Display `json:"mentee"`
	Mentor          identity.Display `json:"mentor"`
	RequestedTime   time.Time        `json:"requestedTime"`
	DurationMinutes int              `json:"durationMinutes"`
	Message         string           `json:"message,omitempty"`
	Status          string           `json:"status"`
	MentorNotes     string           `json:"mentorNotes,omitempty"`
	ConfirmedTime   *time.Time       `json:"confirmedTime,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// NewScheduleDTO builds the view of m. Missing participants leave an empty block.
func NewScheduleDTO(m *domain.MeetingRequest, users map[uuid.UUID]*identity.User) ScheduleDTO {
	dto := ScheduleDTO{
		ID:              m.ID(),
		RequestedTime:   m.RequestedTime(),
		DurationMinutes: m.DurationMinutes(),
		Message:         m.Message(),
		Status:          string(m.Status()),
		MentorNotes:     m.MentorNotes(),
		ConfirmedTime:   m.ConfirmedTime(),
		CreatedAt:       m.CreatedAt(),
		UpdatedAt:       m.UpdatedAt(),
	}
	if u, ok := users[m.MenteeID()]; ok && u != nil {
		dto.Mentee = u.Display()
	}
	if u, ok := users[m.MentorID()]; ok && u != nil {
		dto.Mentor = u.Display()
	}
	return dto
}

// JoinParticipants builds the views of meetings, resolving every participant
// in one directory call.
func JoinParticipants(ctx context.Context, directory identity.Directory, meetings []*domain.MeetingRequest) ([]ScheduleDTO, error) {
	ids := make([]uuid.UUID, 0, len(meetings)*2)
	for _, m := range meetings {
		ids = append(ids, m.MenteeID(), m.MentorID())
	}

	users := map[uuid.UUID]*identity.User{}
	if len(ids) > 0 {
		var err error
		users, err = directory.FindByIDs(ctx, identity.UniqueIDs(ids))
		if err != nil {
			return nil, fmt.Errorf("%w: load participants: %w", domain.ErrDependencyFailure, err)
		}
	}

	dtos := make([]ScheduleDTO, 0, len(meetings))
	for _, m := range meetings {
		dtos = append(dtos, NewScheduleDTO(m, users))
	}
	return dtos, nil
}
