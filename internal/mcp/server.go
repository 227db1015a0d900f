package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mentora/adapter/cli"
	mcplocal "github.com/felixgeelhaar/mentora/adapter/mcp"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/felixgeelhaar/mentora/pkg/observability"
)

// Serve starts an MCP server exposing the schedule tools and blocks until the
// context is canceled. Every call acts as the app's current user.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, metrics observability.Metrics, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cliApp == nil {
		return errors.New("CLI app is required")
	}
	if cfg.MCPAddr == "" {
		return errors.New("MCP address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cliApp, metrics, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "acting_user", cliApp.CurrentUserID)
	stack := middlewareStack(cfg.MCPAuthToken, cliApp.CurrentUserID.String(), logger)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(stack...))
}

// NewServer registers the schedule tools, resources and prompts.
// Resources and prompts are optional; their failures are logged.
func NewServer(cliApp *cli.App, metrics observability.Metrics, logger *slog.Logger) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "mentora-mcp",
		Version: cli.Version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	deps := mcplocal.ToolDependencies{App: cliApp, Logger: logger, Metrics: metrics}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("failed to register MCP resources", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("failed to register MCP prompts", "error", err)
	}
	return srv, nil
}

// middlewareStack puts bearer auth in front of the default stack when a
// token is configured.
func middlewareStack(token, actingUser string, logger *slog.Logger) []middleware.Middleware {
	log := slogAdapter{logger: logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		logger.Warn("MCP auth token not set; requests will be unauthenticated")
		return stack
	}

	authenticator := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: actingUser, Name: "mentora-mcp"},
	}))
	return append([]middleware.Middleware{middleware.Auth(authenticator, middleware.WithAuthLogger(log))}, stack...)
}

// slogAdapter satisfies the mcp-go middleware logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (l slogAdapter) Debug(msg string, fields ...middleware.Field) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l slogAdapter) Info(msg string, fields ...middleware.Field) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l slogAdapter) Warn(msg string, fields ...middleware.Field) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l slogAdapter) Error(msg string, fields ...middleware.Field) {
	l.log(slog.LevelError, msg, fields)
}

func (l slogAdapter) log(level slog.Level, msg string, fields []middleware.Field) {
	l.logger.Log(context.Background(), level, msg, fieldsToArgs(fields)...)
}

func fieldsToArgs(fields []middleware.Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		args = append(args, field.Key, field.Value)
	}
	return args
}
