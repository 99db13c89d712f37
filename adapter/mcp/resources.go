package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	scoringApp "github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
)

// RegisterResources registers MCP resources that expose Pulse data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("pulse://scorers").
		Name("Scorers").
		Description("Registered scorers with bounds, directions and required fields").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if err := requireScoring(app); err != nil {
				return nil, err
			}
			return jsonResource(uri, app.Scoring.Scorers())
		})

	srv.Resource("pulse://tasks").
		Name("Tasks").
		Description("All task templates").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListTasksHandler == nil {
				return nil, fmt.Errorf("task listing requires a storage connection")
			}
			tasks, err := app.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("pulse://instances/active").
		Name("Active Instances").
		Description("Instances that are created or started but not yet completed").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListInstancesHandler == nil {
				return nil, fmt.Errorf("instance listing requires a storage connection")
			}
			instances, err := app.ListInstancesHandler.Handle(ctx, queries.ListInstancesQuery{Statuses: []string{"active"}})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, instances)
		})

	srv.Resource("pulse://recommendations").
		Name("Recommendations").
		Description("Top tasks ranked by the configured metrics").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if err := requireScoring(app); err != nil {
				return nil, err
			}
			req := scoringApp.RankRequest{}
			req.Options.TopN = 10
			results, err := app.Scoring.Rank(ctx, req)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, results)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
