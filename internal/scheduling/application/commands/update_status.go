package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/mentora/internal/shared/application"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/google/uuid"
)

// UpdateStatusCommand transitions a meeting request.
type UpdateStatusCommand struct {
	Caller        domain.Caller
	MeetingID     uuid.UUID
	Status        string
	MentorNotes   string
	ConfirmedTime *time.Time
}

// UpdateStatusHandler handles the UpdateStatusCommand.
type UpdateStatusHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	metrics    observability.Metrics
	now        func() time.Time
}

// NewUpdateStatusHandler creates a new UpdateStatusHandler.
func NewUpdateStatusHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	metrics observability.Metrics,
) *UpdateStatusHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &UpdateStatusHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Handle executes the UpdateStatusCommand and returns the updated request.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*domain.MeetingRequest, error) {
	var (
		meeting  *domain.MeetingRequest
		previous domain.Status
	)

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		var err error
		meeting, err = h.repo.FindByID(txCtx, cmd.MeetingID)
		if err != nil {
			return err
		}
		if meeting == nil {
			return domain.ErrNotFound
		}
		if !cmd.Caller.CanUpdateStatus(meeting) {
			return fmt.Errorf("%w: user not authorized to update this schedule request", domain.ErrForbidden)
		}

		target, err := domain.ParseStatus(cmd.Status)
		if err != nil {
			return err
		}
		previous = meeting.Status()
		if err := meeting.TransitionTo(target, cmd.MentorNotes, cmd.ConfirmedTime, h.now().UTC()); err != nil {
			return err
		}

		if err := h.repo.Save(txCtx, meeting); err != nil {
			return err
		}
		return saveEvents(txCtx, h.outboxRepo, meeting, cmd.Caller.ID)
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricMeetingStatusChanges, 1,
		observability.T("from", string(previous)),
		observability.T("to", string(meeting.Status())),
	)

	return meeting, nil
}
