package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/pkg/observability"
)

type scheduleRequestInput struct {
	RequestedTime   string `json:"requested_time" jsonschema:"required"`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"required"`
	Message         string `json:"message,omitempty"`
}

type scheduleListInput struct {
	Status   string `json:"status,omitempty"`
	Upcoming bool   `json:"upcoming,omitempty"`
	Past     bool   `json:"past,omitempty"`
}

type scheduleGetInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"required"`
}

type scheduleUpdateStatusInput struct {
	MeetingID     string `json:"meeting_id" jsonschema:"required"`
	Status        string `json:"status" jsonschema:"required"`
	MentorNotes   string `json:"mentor_notes,omitempty"`
	ConfirmedTime string `json:"confirmed_time,omitempty"`
}

// scheduleTools runs every call as the app's current user.
type scheduleTools struct {
	app     *cli.App
	logger  *slog.Logger
	metrics observability.Metrics
}

func registerScheduleTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := &scheduleTools{app: deps.App, logger: deps.Logger, metrics: deps.Metrics}

	srv.Tool("schedule.request").
		Description("Request a meeting with your assigned mentor (mentees only). requested_time is RFC 3339.").
		Handler(tools.request)

	srv.Tool("schedule.list").
		Description("List your meeting requests, optionally filtered by status, upcoming or past").
		Handler(tools.list)

	srv.Tool("schedule.get").
		Description("Show one meeting request you take part in").
		Handler(tools.get)

	srv.Tool("schedule.update_status").
		Description("Confirm, reject, complete or cancel a meeting request. Confirmed needs confirmed_time.").
		Handler(tools.updateStatus)

	return nil
}

func (t *scheduleTools) request(ctx context.Context, input scheduleRequestInput) (dto *queries.ScheduleDTO, err error) {
	timer := t.timer("schedule.request")
	defer func() { timer.StopWithError(err) }()

	if t.app.RequestMeetingHandler == nil {
		return nil, errors.New("meeting requests require database connection")
	}
	caller, err := t.app.CurrentCaller(ctx)
	if err != nil {
		return nil, err
	}
	requested, err := parseOptionalTime("requested_time", input.RequestedTime)
	if err != nil {
		return nil, err
	}

	cmd := commands.RequestMeetingCommand{
		Caller:          caller,
		DurationMinutes: input.DurationMinutes,
		Message:         input.Message,
	}
	if requested != nil {
		cmd.RequestedTime = *requested
	}

	meeting, err := t.app.RequestMeetingHandler.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return t.join(ctx, meeting), nil
}

func (t *scheduleTools) list(ctx context.Context, input scheduleListInput) (dtos []queries.ScheduleDTO, err error) {
	timer := t.timer("schedule.list")
	defer func() { timer.StopWithError(err) }()

	if t.app.ListSchedulesHandler == nil {
		return nil, errors.New("schedule listing requires database connection")
	}
	caller, err := t.app.CurrentCaller(ctx)
	if err != nil {
		return nil, err
	}
	return t.app.ListSchedulesHandler.Handle(ctx, queries.ListMySchedulesQuery{
		Caller:   caller,
		Status:   input.Status,
		Upcoming: input.Upcoming,
		Past:     input.Past,
	})
}

func (t *scheduleTools) get(ctx context.Context, input scheduleGetInput) (dto *queries.ScheduleDTO, err error) {
	timer := t.timer("schedule.get")
	defer func() { timer.StopWithError(err) }()

	if t.app.GetScheduleHandler == nil {
		return nil, errors.New("schedule lookup requires database connection")
	}
	caller, err := t.app.CurrentCaller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseUUID(input.MeetingID)
	if err != nil {
		return nil, err
	}
	return t.app.GetScheduleHandler.Handle(ctx, queries.GetScheduleQuery{Caller: caller, MeetingID: id})
}

func (t *scheduleTools) updateStatus(ctx context.Context, input scheduleUpdateStatusInput) (dto *queries.ScheduleDTO, err error) {
	timer := t.timer("schedule.update_status")
	defer func() { timer.StopWithError(err) }()

	if t.app.UpdateStatusHandler == nil {
		return nil, errors.New("status updates require database connection")
	}
	caller, err := t.app.CurrentCaller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseUUID(input.MeetingID)
	if err != nil {
		return nil, err
	}
	confirmed, err := parseOptionalTime("confirmed_time", input.ConfirmedTime)
	if err != nil {
		return nil, err
	}

	meeting, err := t.app.UpdateStatusHandler.Handle(ctx, commands.UpdateStatusCommand{
		Caller:        caller,
		MeetingID:     id,
		Status:        input.Status,
		MentorNotes:   input.MentorNotes,
		ConfirmedTime: confirmed,
	})
	if err != nil {
		return nil, err
	}
	return t.join(ctx, meeting), nil
}

func (t *scheduleTools) timer(operation string) *observability.Timer {
	return observability.StartTimer(operation).
		WithLogger(t.logger).
		WithMetrics(t.metrics).
		WithTags(observability.T("surface", "mcp"))
}

// join attaches participants. A lookup failure falls back to bare IDs.
func (t *scheduleTools) join(ctx context.Context, meeting *domain.MeetingRequest) *queries.ScheduleDTO {
	dtos, err := queries.JoinParticipants(ctx, t.app.Users, []*domain.MeetingRequest{meeting})
	if err != nil {
		t.logger.WarnContext(ctx, "participant lookup failed",
			"meeting_id", meeting.ID(),
			observability.ErrorKey, fmt.Errorf("join participants: %w", err),
		)
		dto := queries.NewScheduleDTO(meeting, nil)
		return &dto
	}
	return &dtos[0]
}
