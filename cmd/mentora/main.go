package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/mentora/adapter/api"
	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/adapter/cli/mcp"
	"github.com/felixgeelhaar/mentora/adapter/cli/schedule"
	"github.com/felixgeelhaar/mentora/adapter/cli/token"
	"github.com/felixgeelhaar/mentora/adapter/cli/user"
	"github.com/felixgeelhaar/mentora/internal/app"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"go.mongodb.org/mongo-driver/mongo"
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
	logCfg.ServiceVersion = cli.Version
	logger = observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// version and help still work; other commands report ErrNotInitialized.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(newApp(container, cfg))
	}

	cli.AddCommand(user.Cmd)
	cli.AddCommand(token.Cmd)
	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}

func newApp(container *app.Container, cfg *config.Config) *cli.App {
	cliApp := cli.NewApp(
		container.RequestMeetingHandler,
		container.UpdateStatusHandler,
		container.ListSchedulesHandler,
		container.GetScheduleHandler,
		container.UserRepo,
		container.Tokens,
	)
	cliApp.Metrics = container.Metrics

	var mongoDB *mongo.Database
	if container.Mongo != nil {
		mongoDB = container.Mongo.Database()
	}
	cliApp.SetStorage(container.DBConn, mongoDB)

	serverCfg := api.DefaultServerConfig()
	if cfg.HTTPAddr != "" {
		serverCfg.Addr = cfg.HTTPAddr
	}
	server := api.NewServer(serverCfg, api.Dependencies{
		Schedules: api.NewScheduleHandler(
			container.RequestMeetingHandler,
			container.UpdateStatusHandler,
			container.ListSchedulesHandler,
			container.GetScheduleHandler,
			container.Directory,
			container.Logger,
		),
		Tokens:         container.Tokens,
		Directory:      container.Directory,
		Health:         container.Health,
		MetricsHandler: container.MetricsHandler(),
		Metrics:        container.Metrics,
		Logger:         container.Logger,
	})

	// With RabbitMQ the worker owns delivery; serve only runs the processor
	// when events stay in process.
	var processor *outbox.Processor
	if cfg.OutboxProcessorEnabled && !container.UsesRabbitMQ() {
		processor = container.OutboxProcessor
	}
	cliApp.SetServer(server, processor, container.Health)

	return cliApp
}
