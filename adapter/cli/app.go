package cli

import (
	internalApp "github.com/felixgeelhaar/pulse/internal/app"
	scoringApp "github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
	"github.com/felixgeelhaar/pulse/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
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

	// Scoring
	Scoring *scoringApp.Service

	// Health
	Health *observability.HealthRegistry
}

// NewApp creates a CLI application from a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		CreateTaskHandler:       c.CreateTaskHandler,
		CreateInstanceHandler:   c.CreateInstanceHandler,
		StartInstanceHandler:    c.StartInstanceHandler,
		CompleteInstanceHandler: c.CompleteInstanceHandler,
		CancelInstanceHandler:   c.CancelInstanceHandler,
		DeleteInstanceHandler:   c.DeleteInstanceHandler,
		ListTasksHandler:        c.ListTasksHandler,
		ListInstancesHandler:    c.ListInstancesHandler,
		GetInstanceHandler:      c.GetInstanceHandler,
		Scoring:                 c.Scoring,
		Health:                  c.Health,
	}
}

var app *App

// SetApp sets the global CLI application.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application.
func GetApp() *App {
	return app
}
