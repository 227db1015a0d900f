package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mentora/adapter/api"
	identityDomain "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/identity/infrastructure/token"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotInitialized is returned by commands that need a backend when none is wired.
var ErrNotInitialized = errors.New("mentora is not initialized; check DATABASE_URL")

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	RequestMeetingHandler *commands.RequestMeetingHandler
	UpdateStatusHandler   *commands.UpdateStatusHandler

	// Query Handlers
	ListSchedulesHandler *queries.ListMySchedulesHandler
	GetScheduleHandler   *queries.GetScheduleHandler

	// Identity
	Users         identityDomain.UserRepository
	Tokens        *token.Manager
	CurrentUserID uuid.UUID

	// Storage, for migrations. One of DBConn and MongoDB is set.
	DBConn  database.Connection
	MongoDB *mongo.Database

	// Serving
	APIServer       *api.Server
	OutboxProcessor *outbox.Processor
	Health          *observability.HealthRegistry
	Metrics         observability.Metrics
}

// NewApp creates a CLI app from the scheduling handlers.
func NewApp(
	requestMeeting *commands.RequestMeetingHandler,
	updateStatus *commands.UpdateStatusHandler,
	listSchedules *queries.ListMySchedulesHandler,
	getSchedule *queries.GetScheduleHandler,
	users identityDomain.UserRepository,
	tokens *token.Manager,
) *App {
	return &App{
		RequestMeetingHandler: requestMeeting,
		UpdateStatusHandler:   updateStatus,
		ListSchedulesHandler:  listSchedules,
		GetScheduleHandler:    getSchedule,
		Users:                 users,
		Tokens:                tokens,
	}
}

// SetStorage records the backend migrations run against.
func (a *App) SetStorage(conn database.Connection, mongoDB *mongo.Database) {
	a.DBConn = conn
	a.MongoDB = mongoDB
}

// SetServer wires the HTTP server and the outbox processor that serve runs.
func (a *App) SetServer(server *api.Server, processor *outbox.Processor, health *observability.HealthRegistry) {
	a.APIServer = server
	a.OutboxProcessor = processor
	a.Health = health
}

// SetCurrentUserID fixes the acting user for surfaces without --as, such as MCP.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// CurrentCaller resolves the user set by SetCurrentUserID.
func (a *App) CurrentCaller(ctx context.Context) (schedulingDomain.Caller, error) {
	if a.CurrentUserID == uuid.Nil {
		return schedulingDomain.Caller{}, errors.New("no acting user configured")
	}
	return a.Caller(ctx, a.CurrentUserID.String())
}

// Caller resolves a user ID from --as into the caller the handlers expect.
func (a *App) Caller(ctx context.Context, raw string) (schedulingDomain.Caller, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return schedulingDomain.Caller{}, fmt.Errorf("invalid user ID %q: %w", raw, err)
	}
	user, err := a.Users.FindByID(ctx, id)
	if err != nil {
		return schedulingDomain.Caller{}, err
	}
	if user == nil {
		return schedulingDomain.Caller{}, fmt.Errorf("user %s not found", id)
	}
	return schedulingDomain.Caller{ID: user.ID(), Role: user.Role()}, nil
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance, or ErrNotInitialized.
func GetApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}
