package queries

import (
	"context"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/google/uuid"
)

// GetScheduleQuery fetches a single meeting request.
type GetScheduleQuery struct {
	Caller    domain.Caller
	MeetingID uuid.UUID
}

// GetScheduleHandler handles the GetScheduleQuery.
type GetScheduleHandler struct {
	repo      domain.Repository
	directory identity.Directory
}

// NewGetScheduleHandler creates a new GetScheduleHandler.
func NewGetScheduleHandler(repo domain.Repository, directory identity.Directory) *GetScheduleHandler {
	return &GetScheduleHandler{repo: repo, directory: directory}
}

// Handle executes the GetScheduleQuery.
func (h *GetScheduleHandler) Handle(ctx context.Context, query GetScheduleQuery) (*ScheduleDTO, error) {
	meeting, err := h.repo.FindByID(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, domain.ErrNotFound
	}
	if !query.Caller.CanView(meeting) {
		return nil, domain.ErrForbidden
	}

	dtos, err := JoinParticipants(ctx, h.directory, []*domain.MeetingRequest{meeting})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}
