package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ScheduleHandler serves the meeting request endpoints.
type ScheduleHandler struct {
	requestMeeting *commands.RequestMeetingHandler
	updateStatus   *commands.UpdateStatusHandler
	listSchedules  *queries.ListMySchedulesHandler
	getSchedule    *queries.GetScheduleHandler
	directory      identity.Directory
	logger         *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(
	requestMeeting *commands.RequestMeetingHandler,
	updateStatus *commands.UpdateStatusHandler,
	listSchedules *queries.ListMySchedulesHandler,
	getSchedule *queries.GetScheduleHandler,
	directory identity.Directory,
	logger *slog.Logger,
) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{
		requestMeeting: requestMeeting,
		updateStatus:   updateStatus,
		listSchedules:  listSchedules,
		getSchedule:    getSchedule,
		directory:      directory,
		logger:         logger,
	}
}

type requestMeetingBody struct {
	RequestedTime   string `json:"requestedTime"`
	DurationMinutes int    `json:"durationMinutes"`
	Message         string `json:"message"`
}

type updateStatusBody struct {
	Status        string `json:"status"`
	MentorNotes   string `json:"mentorNotes"`
	ConfirmedTime string `json:"confirmedTime"`
}

// RequestMeeting handles POST /schedules/request.
func (h *ScheduleHandler) RequestMeeting(c echo.Context) error {
	var body requestMeetingBody
	if err := c.Bind(&body); err != nil {
		return err
	}
	requestedTime, err := parseTime("requestedTime", body.RequestedTime)
	if err != nil {
		return err
	}

	cmd := commands.RequestMeetingCommand{
		Caller:          callerFrom(c),
		DurationMinutes: body.DurationMinutes,
		Message:         body.Message,
	}
	if requestedTime != nil {
		cmd.RequestedTime = *requestedTime
	}

	meeting, err := h.requestMeeting.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, meeting)
}

// ListSchedules handles GET /schedules.
func (h *ScheduleHandler) ListSchedules(c echo.Context) error {
	query := queries.ListMySchedulesQuery{
		Caller:   callerFrom(c),
		Status:   c.QueryParam("status"),
		Upcoming: flag(c.QueryParam("upcoming")),
		Past:     flag(c.QueryParam("past")),
	}

	dtos, err := h.listSchedules.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos)
}

// GetSchedule handles GET /schedules/:id.
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return err
	}

	dto, err := h.getSchedule.Handle(c.Request().Context(), queries.GetScheduleQuery{
		Caller:    callerFrom(c),
		MeetingID: id,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto)
}

// UpdateStatus handles PUT /schedules/:id/status.
func (h *ScheduleHandler) UpdateStatus(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return err
	}
	var body updateStatusBody
	if err := c.Bind(&body); err != nil {
		return err
	}
	confirmedTime, err := parseTime("confirmedTime", body.ConfirmedTime)
	if err != nil {
		return err
	}

	meeting, err := h.updateStatus.Handle(c.Request().Context(), commands.UpdateStatusCommand{
		Caller:        callerFrom(c),
		MeetingID:     id,
		Status:        body.Status,
		MentorNotes:   body.MentorNotes,
		ConfirmedTime: confirmedTime,
	})
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, meeting)
}

// respond renders a freshly written record with its participants joined.
func (h *ScheduleHandler) respond(c echo.Context, status int, meeting *domain.MeetingRequest) error {
	dtos, err := queries.JoinParticipants(c.Request().Context(), h.directory, []*domain.MeetingRequest{meeting})
	if err != nil {
		// The write already committed; answer without participant details.
		h.logger.WarnContext(c.Request().Context(), "failed to join participants",
			"meeting_id", meeting.ID(),
			"error", err,
		)
		return c.JSON(status, queries.NewScheduleDTO(meeting, nil))
	}
	return c.JSON(status, dtos[0])
}

// meetingID parses the :id path parameter. Malformed IDs cannot name a
// record, so they read as not found.
func meetingID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: meeting %q", domain.ErrNotFound, c.Param("id"))
	}
	return id, nil
}

// parseTime accepts RFC 3339 timestamps. Empty input means absent.
func parseTime(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, &APIError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_time",
			Message: field + " must be an RFC 3339 timestamp",
		}
	}
	t = t.UTC()
	return &t, nil
}

func flag(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
