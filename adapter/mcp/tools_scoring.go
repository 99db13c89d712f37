package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/pulse/adapter/cli"
	scoringApp "github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/scoring/application/services"
	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
)

type componentInput struct {
	Scorer     string `json:"scorer" jsonschema:"required"`
	InstanceID string `json:"instance_id" jsonschema:"required"`
}

type compositeInput struct {
	InstanceID string             `json:"instance_id" jsonschema:"required"`
	Weights    map[string]float64 `json:"weights,omitempty"`
}

type baselineInput struct {
	Metric     string `json:"metric" jsonschema:"required"`
	Scope      string `json:"scope,omitempty"`
	WindowDays int    `json:"window_days,omitempty"`
}

type rankInput struct {
	Metrics        []string           `json:"metrics,omitempty"`
	TaskTypes      []string           `json:"task_types,omitempty"`
	MaxMinutes     float64            `json:"max_minutes,omitempty"`
	ExcludeTaskIDs []string           `json:"exclude_task_ids,omitempty"`
	MinScores      map[string]float64 `json:"min_scores,omitempty"`
	RequireHistory bool               `json:"require_history,omitempty"`
	Weights        map[string]float64 `json:"weights,omitempty"`
	Top            int                `json:"top,omitempty"`
	WindowDays     int                `json:"window_days,omitempty"`
}

type tableInput struct {
	Names []string `json:"names,omitempty"`
}

func registerScoringTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("scoring.component").
		Description("Compute one component score (0-100, productivity in points) for a task instance").
		Handler(componentHandler(app))

	srv.Tool("scoring.composite").
		Description("Weighted composite of normalized component scores for a task instance. Omit weights for the configured defaults").
		Handler(compositeHandler(app))

	srv.Tool("scoring.baseline").
		Description("Rolling mean of a raw metric. Scope is global, type:<type> or task:<id>; sparse scopes fall back to broader ones").
		Handler(baselineHandler(app))

	srv.Tool("scoring.rank").
		Description("Recommend tasks by their historical scores. Metrics are names, optionally suffixed :low or :high").
		Handler(rankHandler(app))

	srv.Tool("scoring.table").
		Description("Component scores for every completed instance").
		Handler(tableHandler(app))

	srv.Tool("scoring.scorers").
		Description("List the registered scorers with their bounds and directions").
		Handler(scorersHandler(app))

	return nil
}

func componentHandler(app *cli.App) func(context.Context, componentInput) (domain.Score, error) {
	return func(ctx context.Context, input componentInput) (domain.Score, error) {
		if err := requireScoring(app); err != nil {
			return domain.Score{}, err
		}
		id, err := parseUUID(input.InstanceID)
		if err != nil {
			return domain.Score{}, err
		}
		return app.Scoring.ComputeComponentScore(ctx, input.Scorer, id)
	}
}

func compositeHandler(app *cli.App) func(context.Context, compositeInput) (scoringApp.CompositeResult, error) {
	return func(ctx context.Context, input compositeInput) (scoringApp.CompositeResult, error) {
		if err := requireScoring(app); err != nil {
			return scoringApp.CompositeResult{}, err
		}
		id, err := parseUUID(input.InstanceID)
		if err != nil {
			return scoringApp.CompositeResult{}, err
		}
		return app.Scoring.ComputeComposite(ctx, input.Weights, id)
	}
}

func baselineHandler(app *cli.App) func(context.Context, baselineInput) (services.Baseline, error) {
	return func(ctx context.Context, input baselineInput) (services.Baseline, error) {
		if err := requireScoring(app); err != nil {
			return services.Baseline{}, err
		}
		scope, err := domain.ParseScope(input.Scope)
		if err != nil {
			return services.Baseline{}, err
		}
		return app.Scoring.GetBaseline(ctx, input.Metric, scope, input.WindowDays)
	}
}

func rankHandler(app *cli.App) func(context.Context, rankInput) ([]services.RankedResult, error) {
	return func(ctx context.Context, input rankInput) ([]services.RankedResult, error) {
		if err := requireScoring(app); err != nil {
			return nil, err
		}

		req := scoringApp.RankRequest{
			Filters: services.RankFilters{
				MaxEstimateMinutes: input.MaxMinutes,
				MinScores:          input.MinScores,
				RequireHistory:     input.RequireHistory,
			},
			Options:    services.RankOptions{TopN: input.Top, Weights: input.Weights},
			WindowDays: input.WindowDays,
		}
		if len(input.Metrics) > 0 {
			specs, err := cli.ParseMetricSpecs(input.Metrics, app.Scoring.MetricSpec)
			if err != nil {
				return nil, err
			}
			req.Metrics = specs
		}
		for _, t := range input.TaskTypes {
			if !telemetry.IsKnownTaskType(t) {
				return nil, fmt.Errorf("unknown task type %q", t)
			}
			req.Filters.TaskTypes = append(req.Filters.TaskTypes, telemetry.TaskType(t))
		}
		exclude, err := parseUUIDs(input.ExcludeTaskIDs)
		if err != nil {
			return nil, err
		}
		req.Filters.ExcludeTaskIDs = exclude

		return app.Scoring.Rank(ctx, req)
	}
}

func tableHandler(app *cli.App) func(context.Context, tableInput) ([]services.TableRow, error) {
	return func(ctx context.Context, input tableInput) ([]services.TableRow, error) {
		if err := requireScoring(app); err != nil {
			return nil, err
		}
		return app.Scoring.ScoreTable(ctx, input.Names)
	}
}

func scorersHandler(app *cli.App) func(context.Context, struct{}) ([]scoringApp.ScorerInfo, error) {
	return func(ctx context.Context, _ struct{}) ([]scoringApp.ScorerInfo, error) {
		if err := requireScoring(app); err != nil {
			return nil, err
		}
		return app.Scoring.Scorers(), nil
	}
}
