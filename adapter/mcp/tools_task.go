package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
)

type taskCreateInput struct {
	Name            string  `json:"name" jsonschema:"required"`
	Type            string  `json:"task_type,omitempty"`
	EstimateMinutes float64 `json:"estimate_minutes,omitempty"`
}

type taskListInput struct {
	Type string `json:"task_type,omitempty"`
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("task.create").
		Description("Create a task template (work, self_care, play or other)").
		Handler(taskCreateHandler(app))

	srv.Tool("task.list").
		Description("List task templates").
		Handler(taskListHandler(app))

	return nil
}

func taskCreateHandler(app *cli.App) func(context.Context, taskCreateInput) (*commands.CreateTaskResult, error) {
	return func(ctx context.Context, input taskCreateInput) (*commands.CreateTaskResult, error) {
		if app == nil || app.CreateTaskHandler == nil {
			return nil, errors.New("task creation requires a storage connection")
		}
		if input.Name == "" {
			return nil, errors.New("name is required")
		}
		return app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
			Name:            input.Name,
			Type:            input.Type,
			EstimateMinutes: input.EstimateMinutes,
		})
	}
}

func taskListHandler(app *cli.App) func(context.Context, taskListInput) ([]queries.TaskDTO, error) {
	return func(ctx context.Context, input taskListInput) ([]queries.TaskDTO, error) {
		if app == nil || app.ListTasksHandler == nil {
			return nil, errors.New("task listing requires a storage connection")
		}
		return app.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{Type: input.Type})
	}
}
