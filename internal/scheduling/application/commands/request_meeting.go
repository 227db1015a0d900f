package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/mentora/internal/shared/application"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/google/uuid"
)

// RequestMeetingCommand contains the data a mentee submits.
type RequestMeetingCommand struct {
	Caller          domain.Caller `json:"-" validate:"-"`
	RequestedTime   time.Time     `json:"requestedTime" validate:"required"`
	DurationMinutes int           `json:"durationMinutes" validate:"required"`
	Message         string        `json:"message"`
}

// RequestMeetingHandler handles the RequestMeetingCommand.
type RequestMeetingHandler struct {
	repo       domain.Repository
	directory  identity.Directory
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	metrics    observability.Metrics
	now        func() time.Time
}

// NewRequestMeetingHandler creates a new RequestMeetingHandler.
func NewRequestMeetingHandler(
	repo domain.Repository,
	directory identity.Directory,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	metrics observability.Metrics,
) *RequestMeetingHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RequestMeetingHandler{
		repo:       repo,
		directory:  directory,
		outboxRepo: outboxRepo,
		uow:        uow,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Handle executes the RequestMeetingCommand and returns the stored request.
func (h *RequestMeetingHandler) Handle(ctx context.Context, cmd RequestMeetingCommand) (*domain.MeetingRequest, error) {
	if !cmd.Caller.CanRequest() {
		return nil, fmt.Errorf("%w: only mentees can request meetings", domain.ErrForbidden)
	}

	mentorID, err := h.resolveMentor(ctx, cmd.Caller.ID)
	if err != nil {
		return nil, err
	}

	if err := sharedApplication.Validate(cmd); err != nil {
		if fields := sharedApplication.FieldNames(err); len(fields) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingField, strings.Join(fields, ", "))
		}
		return nil, err
	}

	meeting, err := domain.NewMeetingRequest(cmd.Caller.ID, mentorID, cmd.RequestedTime, cmd.DurationMinutes, cmd.Message, h.now().UTC())
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, meeting); err != nil {
			return err
		}
		return saveEvents(txCtx, h.outboxRepo, meeting, cmd.Caller.ID)
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricMeetingsRequested, 1)
	return meeting, nil
}

// resolveMentor finds the caller's assigned mentor. Any missing link in the
// chain is reported as ErrUnresolvedMentor.
func (h *RequestMeetingHandler) resolveMentor(ctx context.Context, menteeID uuid.UUID) (uuid.UUID, error) {
	mentee, err := h.directory.FindByID(ctx, menteeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: load mentee: %w", domain.ErrDependencyFailure, err)
	}
	if mentee == nil || mentee.AssignedMentorID() == nil {
		return uuid.Nil, domain.ErrUnresolvedMentor
	}

	mentorID := *mentee.AssignedMentorID()
	if mentorID == menteeID {
		return uuid.Nil, domain.ErrUnresolvedMentor
	}
	mentor, err := h.directory.FindByID(ctx, mentorID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: load mentor: %w", domain.ErrDependencyFailure, err)
	}
	if mentor == nil {
		return uuid.Nil, domain.ErrUnresolvedMentor
	}
	return mentorID, nil
}
