package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	identityDomain "github.com/felixgeelhaar/mentora/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/mentora/internal/identity/infrastructure/persistence"
	"github.com/felixgeelhaar/mentora/internal/identity/infrastructure/token"
	"github.com/felixgeelhaar/mentora/internal/notifications"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/subscribers"
	schedulingDomain "github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/mentora/internal/shared/application"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database/postgres" // Register Postgres driver
	_ "github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/mongostore"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// devJWTSecret signs tokens in development when JWT_SECRET is unset.
const devJWTSecret = "mentora-development-secret"

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability
	Metrics         observability.Metrics
	MetricsRegistry *prometheus.Registry
	Health          *observability.HealthRegistry

	// Storage. Exactly one of DBConn and Mongo is set.
	DBDriver database.Driver
	DBConn   database.Connection
	Mongo    *mongostore.Store

	// Redis
	RedisClient *redis.Client

	// Repositories
	UserRepo    identityDomain.UserRepository
	Directory   identityDomain.Directory
	MeetingRepo schedulingDomain.Repository
	OutboxRepo  outbox.Repository
	UnitOfWork  sharedApplication.UnitOfWork

	// Events
	EventRegistry   *eventbus.ConsumerRegistry
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor

	// Auth
	Tokens *token.Manager

	// Notifications
	EmailSender            *notifications.BreakerSender
	NotificationSubscriber *subscribers.NotificationSubscriber

	// Command Handlers
	RequestMeetingHandler *commands.RequestMeetingHandler
	UpdateStatusHandler   *commands.UpdateStatusHandler

	// Query Handlers
	ListSchedulesHandler *queries.ListMySchedulesHandler
	GetScheduleHandler   *queries.GetScheduleHandler
}

// NewContainer connects every backend named by cfg and builds the handlers.
// An empty DATABASE_URL selects local mode: SQLite with migrations applied on
// start and events delivered in process.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
		Health: observability.NewHealthRegistry(),
	}

	c.MetricsRegistry = prometheus.NewRegistry()
	c.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = observability.NewPrometheusMetrics(cfg.MetricsNamespace, c.MetricsRegistry).WithLogger(c.Logger)

	factory, err := c.initStorage(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.initRepositories(factory); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}

	tokens, err := newTokenManager(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Tokens = tokens

	if err := c.initNotifications(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEvents(); err != nil {
		c.Close()
		return nil, err
	}

	c.RequestMeetingHandler = commands.NewRequestMeetingHandler(c.MeetingRepo, c.Directory, c.OutboxRepo, c.UnitOfWork, c.Metrics)
	c.UpdateStatusHandler = commands.NewUpdateStatusHandler(c.MeetingRepo, c.OutboxRepo, c.UnitOfWork, c.Metrics)
	c.ListSchedulesHandler = queries.NewListMySchedulesHandler(c.MeetingRepo, c.Directory)
	c.GetScheduleHandler = queries.NewGetScheduleHandler(c.MeetingRepo, c.Directory)

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"local_mode", cfg.IsLocalMode(),
		"email_provider", cfg.EmailProvider,
	)
	return c, nil
}

// initStorage opens the configured database and returns its repository factory.
func (c *Container) initStorage(ctx context.Context) (*RepositoryFactory, error) {
	cfg := c.Config
	dbCfg := database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	c.DBDriver = dbCfg.ResolveDriver()

	if c.DBDriver == database.DriverMongo {
		store, err := mongostore.Connect(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		c.Mongo = store
		c.Health.Register("database", observability.PingChecker("mongodb", observability.HealthStatusUnhealthy, store.Ping))
		c.Logger.Info("connected to MongoDB", "database", store.Database().Name(), "transactions", store.SupportsTransactions())
		if !store.SupportsTransactions() {
			c.Logger.Warn("MongoDB is standalone; meeting writes and their outbox messages are not atomic")
		}
		return NewMongoRepositoryFactory(store), nil
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.Health.Register("database", observability.PingChecker(c.DBDriver.String(), observability.HealthStatusUnhealthy, conn.Ping))
	c.Logger.Info("connected to database", "driver", c.DBDriver)

	if c.DBDriver == database.DriverSQLite {
		c.Logger.Info("running SQLite migrations")
		if err := migrations.Migrate(ctx, conn); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return NewRepositoryFactory(conn), nil
}

func (c *Container) initRepositories(factory *RepositoryFactory) error {
	var err error
	if c.UserRepo, err = factory.UserRepository(); err != nil {
		return fmt.Errorf("failed to create user repository: %w", err)
	}
	if c.MeetingRepo, err = factory.MeetingRepository(); err != nil {
		return fmt.Errorf("failed to create meeting repository: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return fmt.Errorf("failed to create outbox repository: %w", err)
	}
	if c.UnitOfWork, err = factory.UnitOfWork(); err != nil {
		return fmt.Errorf("failed to create unit of work: %w", err)
	}
	c.Directory = c.UserRepo
	return nil
}

// cacheDirectory routes user reads and writes through the Redis cache so
// saves invalidate cached entries.
func (c *Container) cacheDirectory(client *redis.Client) {
	cached := identityPersistence.NewRedisCachedDirectory(c.UserRepo, client, c.Config.DirectoryCacheTTL, c.Logger, c.Metrics)
	c.UserRepo = cached
	c.Directory = cached
}

// initRedis puts the directory behind a Redis cache when REDIS_URL is set.
// Development tolerates an unreachable Redis.
func (c *Container) initRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, directory cache disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, directory cache disabled", "error", err)
		return nil
	}

	c.RedisClient = client
	c.cacheDirectory(client)
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis", "cache_ttl", cfg.DirectoryCacheTTL)
	return nil
}

func newTokenManager(cfg *config.Config, logger *slog.Logger) (*token.Manager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return token.NewManager(secret, cfg.JWTIssuer, cfg.JWTTTL)
}

func (c *Container) initNotifications(ctx context.Context) error {
	cfg := c.Config

	var sender notifications.Sender
	switch cfg.EmailProvider {
	case "gmail":
		gmailSender, err := notifications.NewGmailSender(ctx, notifications.GmailConfig{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
		})
		if err != nil {
			return fmt.Errorf("failed to create gmail sender: %w", err)
		}
		sender = gmailSender
	default:
		sender = notifications.NewLogSender(c.Logger)
	}

	c.EmailSender = notifications.NewBreakerSender(sender, notifications.BreakerConfig{
		Name:             "email-" + cfg.EmailProvider,
		FailureThreshold: cfg.EmailBreakerFailure,
		Timeout:          cfg.EmailBreakerTimeout,
	}, c.Logger, c.Metrics)

	c.NotificationSubscriber = subscribers.NewNotificationSubscriber(
		c.Directory,
		notifications.NewComposer(cfg.EmailFromName, cfg.EmailFromAddress),
		c.EmailSender,
		c.Logger,
	)
	return nil
}

// initEvents picks the outbox publisher. RabbitMQ is used when configured;
// otherwise events are dispatched in process.
func (c *Container) initEvents() error {
	cfg := c.Config
	c.EventRegistry = eventbus.NewConsumerRegistry(c.Logger, c.Metrics)
	c.EventRegistry.Register(c.NotificationSubscriber)

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(eventbus.RabbitMQConfig{
			URL:    cfg.RabbitMQURL,
			Logger: c.Logger,
		})
		switch {
		case err == nil:
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusUnhealthy, publisher.Ping))
		case cfg.IsDevelopment():
			c.Logger.Warn("RabbitMQ not available, dispatching events in process", "error", err)
		default:
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	}
	if c.EventPublisher == nil {
		c.EventPublisher = eventbus.NewInProcessBus(c.EventRegistry, c.Logger)
	}

	processorCfg := outbox.DefaultProcessorConfig()
	processorCfg.PollInterval = cfg.OutboxPollInterval
	processorCfg.BatchSize = cfg.OutboxBatchSize
	processorCfg.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorCfg, c.Logger, c.Metrics)
	return nil
}

// UsesRabbitMQ reports whether events leave the process.
func (c *Container) UsesRabbitMQ() bool {
	_, ok := c.EventPublisher.(*eventbus.RabbitMQPublisher)
	return ok
}

// MetricsHandler serves the Prometheus registry.
func (c *Container) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.MetricsRegistry, promhttp.HandlerOpts{Registry: c.MetricsRegistry})
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.Mongo != nil {
		if err := c.Mongo.Close(context.Background()); err != nil {
			c.Logger.Warn("error closing MongoDB connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Warn("error closing database connection", "driver", c.DBDriver, "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
