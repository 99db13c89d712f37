// Package mcp runs the pulse-mcp server: the scoring, task and instance tools
// of the CLI exposed over MCP streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/pulse/adapter/cli"
	mcplocal "github.com/felixgeelhaar/pulse/adapter/mcp"
	"github.com/felixgeelhaar/pulse/pkg/config"
)

// ServerName is advertised in the MCP handshake.
const ServerName = "pulse-mcp"

// Serve listens on cfg.MCPAddr until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cliApp == nil {
		return errors.New("CLI app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cliApp, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "auth", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(middlewareStack(cfg.MCPAuthToken, logger)...))
}

// NewServer builds the MCP server with every Pulse tool registered.
// Resources and prompts are best effort; a failure there is logged.
func NewServer(cliApp *cli.App, logger *slog.Logger) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    ServerName,
		Version: cli.Version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	deps := mcplocal.ToolDependencies{App: cliApp}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("skipping MCP resources", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("skipping MCP prompts", "error", err)
	}
	return srv, nil
}

// middlewareStack returns the default stack, prefixed with bearer auth when
// a token is configured.
func middlewareStack(token string, logger *slog.Logger) []middleware.Middleware {
	log := slogAdapter{logger: logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		logger.Warn("PULSE_MCP_AUTH_TOKEN not set; MCP requests are unauthenticated")
		return stack
	}

	tokens := middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: ServerName, Name: ServerName},
	})
	auth := middleware.Auth(middleware.BearerTokenAuthenticator(tokens), middleware.WithAuthLogger(log))
	return append([]middleware.Middleware{auth}, stack...)
}

// slogAdapter satisfies the middleware logger with slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debug(msg string, fields ...middleware.Field) {
	a.logger.Debug(msg, attrs(fields)...)
}

func (a slogAdapter) Info(msg string, fields ...middleware.Field) {
	a.logger.Info(msg, attrs(fields)...)
}

func (a slogAdapter) Warn(msg string, fields ...middleware.Field) {
	a.logger.Warn(msg, attrs(fields)...)
}

func (a slogAdapter) Error(msg string, fields ...middleware.Field) {
	a.logger.Error(msg, attrs(fields)...)
}

func attrs(fields []middleware.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
