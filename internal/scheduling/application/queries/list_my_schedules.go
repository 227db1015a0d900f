package queries

import (
	"context"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
)

// ListMySchedulesQuery lists the caller's meeting requests.
type ListMySchedulesQuery struct {
	Caller   domain.Caller
	Status   string
	Upcoming bool
	Past     bool
}

// ListMySchedulesHandler handles the ListMySchedulesQuery.
type ListMySchedulesHandler struct {
	repo      domain.Repository
	directory identity.Directory
	now       func() time.Time
}

// NewListMySchedulesHandler creates a new ListMySchedulesHandler.
func NewListMySchedulesHandler(repo domain.Repository, directory identity.Directory) *ListMySchedulesHandler {
	return &ListMySchedulesHandler{repo: repo, directory: directory, now: time.Now}
}

// Handle executes the ListMySchedulesQuery. Results are newest first.
func (h *ListMySchedulesHandler) Handle(ctx context.Context, query ListMySchedulesQuery) ([]ScheduleDTO, error) {
	if !query.Caller.Role.Can(identity.CapListSchedules) {
		return nil, domain.ErrForbidden
	}

	filter := domain.ScheduleFilter{
		Upcoming: query.Upcoming,
		Past:     query.Past,
		Now:      h.now().UTC(),
	}
	if query.Status != "" {
		status, err := domain.ParseStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	meetings, err := h.repo.Find(ctx, query.Caller.Scope(filter))
	if err != nil {
		return nil, err
	}
	return JoinParticipants(ctx, h.directory, meetings)
}
