// Package app wires the Pulse binaries: storage, cache, event bus, scoring
// service and the telemetry command and query handlers.
package app

import (
	"context"
	"fmt"
	"log/slog"

	scoringApp "github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/scoring/application/services"
	"github.com/felixgeelhaar/pulse/internal/scoring/application/subscribers"
	"github.com/felixgeelhaar/pulse/internal/scoring/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/felixgeelhaar/pulse/pkg/config"
	"github.com/felixgeelhaar/pulse/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Profile *config.Profile
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Database
	DBConn   database.Connection // nil for the memory driver
	DBDriver database.Driver

	// Repositories
	Repo       telemetry.Repository
	UnitOfWork sharedApplication.UnitOfWork

	// Cache
	Cache      *cache.Cache
	RedisStore *cache.RedisStore

	// Events
	EventBus          *eventbus.InProcessBus
	EventPublisher    eventbus.Publisher
	RabbitMQPublisher *eventbus.RabbitMQPublisher
	CacheInvalidator  *subscribers.CacheInvalidator

	// Scoring
	Scoring *scoringApp.Service

	// Telemetry Command Handlers
	CreateTaskHandler       *commands.CreateTaskHandler
	CreateInstanceHandler   *commands.CreateInstanceHandler
	StartInstanceHandler    *commands.StartInstanceHandler
	CompleteInstanceHandler *commands.CompleteInstanceHandler
	CancelInstanceHandler   *commands.CancelInstanceHandler
	DeleteInstanceHandler   *commands.DeleteInstanceHandler

	// Telemetry Query Handlers
	ListTasksHandler     *queries.ListTasksHandler
	ListInstancesHandler *queries.ListInstancesHandler
	GetInstanceHandler   *queries.GetInstanceHandler

	// Health
	Health *observability.HealthRegistry
}

// Option customizes a container before it is wired.
type Option func(*Container)

// WithMetrics sets the metrics recorder shared by the cache and the scoring service.
func WithMetrics(m observability.Metrics) Option {
	return func(c *Container) { c.Metrics = m }
}

// WithProfile supplies an already loaded scoring profile instead of reading
// PULSE_SCORING_PROFILE.
func WithProfile(p *config.Profile) Option {
	return func(c *Container) { c.Profile = p }
}

// NewContainer creates and wires all dependencies. Redis and RabbitMQ are
// optional: in development an unreachable broker or cache store falls back to
// the local implementation, elsewhere it is an error.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Profile == nil {
		profile, err := config.LoadProfile(cfg.ScoringProfile)
		if err != nil {
			return nil, err
		}
		c.Profile = profile
	}

	conn, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	if conn != nil {
		c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	}

	if err := c.wire(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger

	// Create repositories
	factory := NewRepositoryFactory(c.DBConn)
	c.DBDriver = factory.Driver()
	repo, err := factory.TelemetryRepository()
	if err != nil {
		return err
	}
	c.Repo = repo
	c.UnitOfWork = factory.UnitOfWork()

	// Create cache
	store, err := c.cacheStore(ctx)
	if err != nil {
		return err
	}
	c.Cache = cache.New(cache.Options{
		Store:   store,
		Metrics: c.Metrics,
		Logger:  logger,
	})

	// Create scoring service
	registry := services.NewDefaultScorerRegistry()
	scoringCfg, err := ScoringConfig(cfg, c.Profile, registry)
	if err != nil {
		return err
	}
	c.Scoring = scoringApp.NewService(c.Repo, c.Cache, scoringCfg,
		scoringApp.WithRegistry(registry),
		scoringApp.WithLogger(logger),
		scoringApp.WithMetrics(c.Metrics),
	)

	// Create event publishers
	c.CacheInvalidator = subscribers.NewCacheInvalidator(c.Cache, logger)
	c.EventBus = eventbus.NewInProcessBus(logger, eventbus.WithBusMetrics(c.Metrics))
	c.EventBus.RegisterConsumer(c.CacheInvalidator)

	c.EventPublisher = c.EventBus
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(eventbus.RabbitMQConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		})
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, change events stay in process", "error", err)
		} else {
			c.RabbitMQPublisher = publisher
			c.EventPublisher = eventbus.NewFanoutPublisher(c.EventBus, publisher)
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
		}
	}

	// Create telemetry command handlers
	deps := commands.Deps{
		UnitOfWork: c.UnitOfWork,
		Publisher:  c.EventPublisher,
		Logger:     logger,
	}
	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.Repo, deps)
	c.CreateInstanceHandler = commands.NewCreateInstanceHandler(c.Repo, deps)
	c.StartInstanceHandler = commands.NewStartInstanceHandler(c.Repo, deps)
	c.CompleteInstanceHandler = commands.NewCompleteInstanceHandler(c.Repo, deps)
	c.CancelInstanceHandler = commands.NewCancelInstanceHandler(c.Repo, deps)
	c.DeleteInstanceHandler = commands.NewDeleteInstanceHandler(c.Repo, deps)

	// Create telemetry query handlers
	c.ListTasksHandler = queries.NewListTasksHandler(c.Repo)
	c.ListInstancesHandler = queries.NewListInstancesHandler(c.Repo)
	c.GetInstanceHandler = queries.NewGetInstanceHandler(c.Repo)

	logger.Debug("container wired",
		"driver", c.DBDriver,
		"redis", c.RedisStore != nil,
		"rabbitmq", c.RabbitMQPublisher != nil,
	)
	return nil
}

// cacheStore selects Redis when configured and reachable, wrapped in a
// circuit breaker unless disabled, and the in-memory store otherwise.
func (c *Container) cacheStore(ctx context.Context) (cache.Store, error) {
	cfg, logger := c.Config, c.Logger
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), nil
	}

	redisStore, err := cache.NewRedisStoreFromURL(cfg.RedisURL)
	if err == nil {
		if err = redisStore.Ping(ctx); err != nil {
			_ = redisStore.Close()
		}
	}
	if err != nil {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Warn("Redis not available, scoring cache stays in memory", "error", err)
		return cache.NewMemoryStore(), nil
	}

	c.RedisStore = redisStore
	c.Health.Register("redis", observability.RedisHealthChecker(redisStore.Ping))
	logger.Info("connected to Redis")

	if !cfg.CacheBreaker {
		return redisStore, nil
	}
	return cache.NewBreakerStore(redisStore, cache.DefaultBreakerConfig(), logger), nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisStore != nil {
		if err := c.RedisStore.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
