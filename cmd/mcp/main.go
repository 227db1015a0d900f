package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/app"
	mcpinternal "github.com/felixgeelhaar/mentora/internal/mcp"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel)
	logCfg.ServiceName = "mentora-mcp"
	logCfg.ServiceVersion = cli.Version
	logger = observability.NewLogger(logCfg)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	userID, err := uuid.Parse(cfg.MCPUserID)
	if err != nil {
		logger.Error("invalid MCP_USER_ID", "error", err)
		os.Exit(1)
	}

	cliApp := mcpinternal.NewCLIApp(container, userID)
	if _, err := cliApp.CurrentCaller(ctx); err != nil {
		logger.Error("MCP_USER_ID does not name a known user", "error", err)
		os.Exit(1)
	}

	// Without RabbitMQ no worker runs, so notifications go out from here.
	if cfg.OutboxProcessorEnabled && !container.UsesRabbitMQ() {
		container.OutboxProcessor.Start(ctx)
	}

	if err := mcpinternal.Serve(ctx, cfg, cliApp, container.Metrics, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
