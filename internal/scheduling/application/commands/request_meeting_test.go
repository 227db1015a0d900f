package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newUser(t *testing.T, first string, role identity.Role, mentorID *uuid.UUID) *identity.User {
	t.Helper()
	f, err := identity.NewName(first)
	require.NoError(t, err)
	l, err := identity.NewName("Tester")
	require.NoError(t, err)
	e, err := identity.NewEmail(first + "@example.com")
	require.NoError(t, err)
	u, err := identity.NewUser(f, l, e, role, mentorID, fixedNow)
	require.NoError(t, err)
	return u
}

type requestFixture struct {
	handler   *RequestMeetingHandler
	repo      *mockMeetingRepo
	directory *mockDirectory
	outbox    *outbox.InMemoryRepository
	uow       *mockUnitOfWork
	metrics   *observability.InMemoryMetrics
	mentee    *identity.User
	mentor    *identity.User
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	mentor := newUser(t, "mentor", identity.RoleMentor, nil)
	mentorID := mentor.ID()
	mentee := newUser(t, "mentee", identity.RoleMentee, &mentorID)

	f := &requestFixture{
		repo:      new(mockMeetingRepo),
		directory: new(mockDirectory),
		outbox:    outbox.NewInMemoryRepository(),
		uow:       new(mockUnitOfWork),
		metrics:   observability.NewInMemoryMetrics(),
		mentee:    mentee,
		mentor:    mentor,
	}
	f.handler = NewRequestMeetingHandler(f.repo, f.directory, f.outbox, f.uow, f.metrics)
	f.handler.now = func() time.Time { return fixedNow }
	return f
}

func (f *requestFixture) caller() domain.Caller {
	return domain.Caller{ID: f.mentee.ID(), Role: identity.RoleMentee}
}

func (f *requestFixture) expectDirectory() {
	f.directory.On("FindByID", mock.Anything, f.mentee.ID()).Return(f.mentee, nil)
	f.directory.On("FindByID", mock.Anything, f.mentor.ID()).Return(f.mentor, nil)
}

func TestRequestMeetingHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request and outbox message", func(t *testing.T) {
		f := newRequestFixture(t)
		f.expectDirectory()
		f.uow.On("Begin", ctx).Return(ctx, nil)
		f.uow.On("Commit", ctx).Return(nil)
		f.repo.On("Save", ctx, mock.AnythingOfType("*domain.MeetingRequest")).Return(nil)

		meeting, err := f.handler.Handle(ctx, RequestMeetingCommand{
			Caller:          f.caller(),
			RequestedTime:   fixedNow.Add(time.Hour),
			DurationMinutes: 45,
			Message:         "Portfolio review",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, meeting.Status())
		assert.Equal(t, f.mentor.ID(), meeting.MentorID())
		assert.Equal(t, 45, meeting.DurationMinutes())
		assert.Empty(t, meeting.DomainEvents())

		msgs := f.outbox.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, domain.RoutingKeyMeetingRequested, msgs[0].RoutingKey)
		assert.Equal(t, meeting.ID(), msgs[0].AggregateID)
		assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricMeetingsRequested))

		f.repo.AssertExpectations(t)
		f.uow.AssertExpectations(t)
	})

	t.Run("non mentee is forbidden", func(t *testing.T) {
		f := newRequestFixture(t)

		_, err := f.handler.Handle(ctx, RequestMeetingCommand{
			Caller:          domain.Caller{ID: f.mentor.ID(), Role: identity.RoleMentor},
			RequestedTime:   fixedNow.Add(time.Hour),
			DurationMinutes: 30,
		})

		assert.ErrorIs(t, err, domain.ErrForbidden)
		f.directory.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("mentee without mentor is unresolved", func(t *testing.T) {
		f := newRequestFixture(t)
		orphan := newUser(t, "orphan", identity.RoleMentee, nil)
		f.directory.On("FindByID", mock.Anything, orphan.ID()).Return(orphan, nil)

		_, err := f.handler.Handle(ctx, RequestMeetingCommand{
			Caller:          domain.Caller{ID: orphan.ID(), Role: identity.RoleMentee},
			RequestedTime:   fixedNow.Add(time.Hour),
			DurationMinutes: 30,
		})

		assert.ErrorIs(t, err, domain.ErrUnresolvedMentor)
	})

	t.Run("assigned mentor missing from directory is unresolved", func(t *testing.T) {
		f := newRequestFixture(t)
		f.directory.On("FindByID", mock.Anything, f.mentee.ID()).Return(f.mentee, nil)
		f.directory.On("FindByID", mock.Anything, f.mentor.ID()).Return(nil, nil)

		_, err := f.handler.Handle(ctx, RequestMeetingCommand{
			Caller:          f.caller(),
			RequestedTime:   fixedNow.Add(time.Hour),
			DurationMinutes: 30,
		})

		assert.ErrorIs(t, err, domain.ErrUnresolvedMentor)
	})

	t.Run("unresolved mentor is reported before missing fields", func(t *testing.T) {
		f := newRequestFixture(t)
		f.directory.On("FindByID", mock.Anything, f.mentee.ID()).Return(nil, nil)

		_, err := f.handler.Handle(ctx, RequestMeetingCommand{Caller: f.caller()})

		assert.ErrorIs(t, err, domain.ErrUnresolvedMentor)
	})

	t.Run("directory failure", func(t *testing.T) {
		f := newRequestFixture(t)
		f.directory.On("FindByID", mock.Anything, f.mentee.ID()).Return(nil, errors.New("connection reset"))

		_, err := f.handler.Handle(ctx, RequestMeetingCommand{
			Caller:          f.caller(),
			RequestedTime:   fixedNow.Add(time.Hour),
			DurationMinutes: 30,
		})

		assert.ErrorIs(t, err, domain.ErrDependencyFailure)
	})

	validation := []struct {
		name string
		cmd  RequestMeetingCommand
		want error
	}{
		{"missing time", RequestMeetingCommand{DurationMinutes: 30}, domain.ErrMissingField},
		{"missing duration", RequestMeetingCommand{RequestedTime: fixedNow.Add(time.Hour)}, domain.ErrMissingField},
		{"missing both", RequestMeetingCommand{}, domain.ErrMissingField},
		{"past time", RequestMeetingCommand{RequestedTime: fixedNow.Add(-time.Minute), DurationMinutes: 30}, domain.ErrInvalidTime},
		{"negative duration", RequestMeetingCommand{RequestedTime: fixedNow.Add(time.Hour), DurationMinutes: -10}, domain.ErrInvalidField},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture(t)
			f.expectDirectory()
			tt.cmd.Caller = f.caller()

			meeting, err := f.handler.Handle(ctx, tt.cmd)

			assert.Nil(t, meeting)
			assert.ErrorIs(t, err, tt.want)
			f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			f.uow.AssertNotCalled(t, "Begin", mock.Anything)
			assert.Empty(t, f.outbox.Messages())
		})
	}

	t.Run("save failure rolls back", func(t *testing.T) {
		f := newRequestFixture(t)
		f.expectDirectory()
		f.uow.On("Begin", ctx).Return(ctx, nil)
		f.uow.On("Rollback", ctx).Return(nil)
		f.repo.On("Save", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := f.handler.Handle(ctx, RequestMeetingCommand{
			Caller:          f.caller(),
			RequestedTime:   fixedNow.Add(time.Hour),
			DurationMinutes: 30,
		})

		require.Error(t, err)
		f.uow.AssertCalled(t, "Rollback", ctx)
		f.uow.AssertNotCalled(t, "Commit", mock.Anything)
		assert.Zero(t, f.metrics.GetCounter(observability.MetricMeetingsRequested))
	})
}
