package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/pulse/internal/app"
	mcpinternal "github.com/felixgeelhaar/pulse/internal/mcp"
	"github.com/felixgeelhaar/pulse/pkg/config"
	"github.com/felixgeelhaar/pulse/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFromEnv().Error("failed to load config", "error", err)
		return 1
	}

	logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	logCfg.ServiceName = "pulse-mcp"
	logger := observability.NewLogger(logCfg)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	consumer, err := mcpinternal.StartInvalidationConsumer(ctx, container, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to start invalidation consumer", "error", err)
			return 1
		}
		logger.Warn("RabbitMQ consumer not available, cache sees local writes only", "error", err)
	}
	if consumer != nil {
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("error closing invalidation consumer", "error", err)
			}
		}()
	}

	cliApp := mcpinternal.NewCLIApp(container)

	if err := mcpinternal.Serve(ctx, cfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		return 1
	}
	return 0
}
