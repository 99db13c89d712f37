package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
)

type instanceCreateInput struct {
	TaskID              string   `json:"task_id" jsonschema:"required"`
	ExpectedRelief      *float64 `json:"expected_relief,omitempty"`
	ExpectedAversion    *float64 `json:"expected_aversion,omitempty"`
	CognitiveLoad       *float64 `json:"cognitive_load,omitempty"`
	EmotionalLoad       *float64 `json:"emotional_load,omitempty"`
	TimeEstimateMinutes *float64 `json:"time_estimate_minutes,omitempty"`
}

type instanceCompleteInput struct {
	InstanceID        string   `json:"instance_id" jsonschema:"required"`
	ActualRelief      *float64 `json:"actual_relief,omitempty"`
	ActualAversion    *float64 `json:"actual_aversion,omitempty"`
	CompletionPercent *float64 `json:"completion_percent,omitempty"`
	DurationMinutes   *float64 `json:"duration_minutes,omitempty"`
	CognitiveLoad     *float64 `json:"cognitive_load,omitempty"`
	EmotionalLoad     *float64 `json:"emotional_load,omitempty"`
}

type instanceIDInput struct {
	InstanceID string `json:"instance_id" jsonschema:"required"`
}

type instanceListInput struct {
	TaskIDs        []string `json:"task_ids,omitempty"`
	Statuses       []string `json:"statuses,omitempty"`
	TaskType       string   `json:"task_type,omitempty"`
	CompletedAfter string   `json:"completed_after,omitempty"`
	Limit          int      `json:"limit,omitempty"`
}

func registerInstanceTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("instance.create").
		Description("Create an active instance of a task with optional predictions (0-100 scales, minutes)").
		Handler(instanceCreateHandler(app))

	srv.Tool("instance.start").
		Description("Record that work on an instance began").
		Handler(func(ctx context.Context, input instanceIDInput) (*queries.InstanceDTO, error) {
			if app == nil || app.StartInstanceHandler == nil {
				return nil, errors.New("instance updates require a storage connection")
			}
			id, err := parseUUID(input.InstanceID)
			if err != nil {
				return nil, err
			}
			if _, err := app.StartInstanceHandler.Handle(ctx, commands.StartInstanceCommand{InstanceID: id}); err != nil {
				return nil, err
			}
			return app.GetInstanceHandler.Handle(ctx, queries.GetInstanceQuery{InstanceID: id})
		})

	srv.Tool("instance.complete").
		Description("Complete an instance with its actual outcome; derived factors are computed once").
		Handler(instanceCompleteHandler(app))

	srv.Tool("instance.cancel").
		Description("Cancel an active instance").
		Handler(func(ctx context.Context, input instanceIDInput) (map[string]any, error) {
			if app == nil || app.CancelInstanceHandler == nil {
				return nil, errors.New("instance updates require a storage connection")
			}
			id, err := parseUUID(input.InstanceID)
			if err != nil {
				return nil, err
			}
			if _, err := app.CancelInstanceHandler.Handle(ctx, commands.CancelInstanceCommand{InstanceID: id}); err != nil {
				return nil, err
			}
			return map[string]any{"instance_id": id.String(), "cancelled": true}, nil
		})

	srv.Tool("instance.delete").
		Description("Delete an instance from the history").
		Handler(func(ctx context.Context, input instanceIDInput) (map[string]any, error) {
			if app == nil || app.DeleteInstanceHandler == nil {
				return nil, errors.New("instance updates require a storage connection")
			}
			id, err := parseUUID(input.InstanceID)
			if err != nil {
				return nil, err
			}
			if _, err := app.DeleteInstanceHandler.Handle(ctx, commands.DeleteInstanceCommand{InstanceID: id}); err != nil {
				return nil, err
			}
			return map[string]any{"instance_id": id.String(), "deleted": true}, nil
		})

	srv.Tool("instance.get").
		Description("Get one instance with its task").
		Handler(func(ctx context.Context, input instanceIDInput) (*queries.InstanceDTO, error) {
			if app == nil || app.GetInstanceHandler == nil {
				return nil, errors.New("instance lookup requires a storage connection")
			}
			id, err := parseUUID(input.InstanceID)
			if err != nil {
				return nil, err
			}
			return app.GetInstanceHandler.Handle(ctx, queries.GetInstanceQuery{InstanceID: id})
		})

	srv.Tool("instance.list").
		Description("List instances by task, status (active, completed, cancelled) and task type").
		Handler(instanceListHandler(app))

	return nil
}

func instanceCreateHandler(app *cli.App) func(context.Context, instanceCreateInput) (*commands.CreateInstanceResult, error) {
	return func(ctx context.Context, input instanceCreateInput) (*commands.CreateInstanceResult, error) {
		if app == nil || app.CreateInstanceHandler == nil {
			return nil, errors.New("instance creation requires a storage connection")
		}
		taskID, err := parseUUID(input.TaskID)
		if err != nil {
			return nil, err
		}
		return app.CreateInstanceHandler.Handle(ctx, commands.CreateInstanceCommand{
			TaskID: taskID,
			Predicted: domain.Predicted{
				ExpectedRelief:      input.ExpectedRelief,
				ExpectedAversion:    input.ExpectedAversion,
				CognitiveLoad:       input.CognitiveLoad,
				EmotionalLoad:       input.EmotionalLoad,
				TimeEstimateMinutes: input.TimeEstimateMinutes,
			},
		})
	}
}

func instanceCompleteHandler(app *cli.App) func(context.Context, instanceCompleteInput) (*queries.InstanceDTO, error) {
	return func(ctx context.Context, input instanceCompleteInput) (*queries.InstanceDTO, error) {
		if app == nil || app.CompleteInstanceHandler == nil {
			return nil, errors.New("instance updates require a storage connection")
		}
		id, err := parseUUID(input.InstanceID)
		if err != nil {
			return nil, err
		}
		_, err = app.CompleteInstanceHandler.Handle(ctx, commands.CompleteInstanceCommand{
			InstanceID: id,
			Actual: domain.Actual{
				ActualRelief:      input.ActualRelief,
				ActualAversion:    input.ActualAversion,
				CompletionPercent: input.CompletionPercent,
				DurationMinutes:   input.DurationMinutes,
				CognitiveLoad:     input.CognitiveLoad,
				EmotionalLoad:     input.EmotionalLoad,
			},
		})
		if err != nil {
			return nil, err
		}
		return app.GetInstanceHandler.Handle(ctx, queries.GetInstanceQuery{InstanceID: id})
	}
}

func instanceListHandler(app *cli.App) func(context.Context, instanceListInput) ([]queries.InstanceDTO, error) {
	return func(ctx context.Context, input instanceListInput) ([]queries.InstanceDTO, error) {
		if app == nil || app.ListInstancesHandler == nil {
			return nil, errors.New("instance listing requires a storage connection")
		}
		taskIDs, err := parseUUIDs(input.TaskIDs)
		if err != nil {
			return nil, err
		}
		after, err := parseOptionalDate(input.CompletedAfter)
		if err != nil {
			return nil, err
		}
		return app.ListInstancesHandler.Handle(ctx, queries.ListInstancesQuery{
			TaskIDs:        taskIDs,
			Statuses:       input.Statuses,
			TaskType:       input.TaskType,
			CompletedAfter: after,
			Limit:          input.Limit,
		})
	}
}
