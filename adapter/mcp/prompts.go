package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common Pulse workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("what_next").
		Description("Pick the next task from ranked recommendations and the current active instances.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Choose What To Work On Next",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me decide what to work on next. Please:

1. Read the ranked tasks from the pulse://recommendations resource
2. Check unfinished work in the pulse://instances/active resource

Then recommend one task. Prefer finishing an active instance when its task
ranks well. Mention the score breakdown behind the choice, and any note that
a score was filled with the neutral default because history is missing.

When I agree, create an instance with instance.create and my predicted relief
and aversion.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("reflect").
		Description("Review recent completions: where relief beat or missed expectations, and how stress and execution trend.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Reflect On Recent Work",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Let's reflect on my recent work. Please:

1. Get component scores for completed instances with scoring.table
2. Compare each task type against its baseline with scoring.baseline
   using scope type:<type> for actual_relief and duration_minutes

Point out tasks where net relief was clearly positive or negative, task
types whose stress is above my global baseline, and anything whose
execution score keeps falling short of its estimate.`,
						},
					},
				},
			}, nil
		})

	return nil
}
