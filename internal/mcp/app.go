package mcp

import (
	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/app"
	"github.com/google/uuid"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container, currentUser uuid.UUID) *cli.App {
	cliApp := cli.NewApp(
		container.RequestMeetingHandler,
		container.UpdateStatusHandler,
		container.ListSchedulesHandler,
		container.GetScheduleHandler,
		container.UserRepo,
		container.Tokens,
	)
	cliApp.Metrics = container.Metrics
	cliApp.SetCurrentUserID(currentUser)
	return cliApp
}
