package task

import (
	"fmt"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/spf13/cobra"
)

var (
	taskType string
	estimate float64
)

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a task template",
	Long: `Add a task template with a type and a time estimate.

Types: work, self_care, play, other. Unknown types are stored as other.

Examples:
  pulse task add "Write report" --type work --estimate 45
  pulse task add "Walk" -t self_care -e 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateTaskHandler == nil {
			return cli.ErrAppNotInitialized
		}

		result, err := app.CreateTaskHandler.Handle(cmd.Context(), commands.CreateTaskCommand{
			Name:            args[0],
			Type:            taskType,
			EstimateMinutes: estimate,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]string{"task_id": result.TaskID.String()})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task created: %s\n", result.TaskID)
		fmt.Fprintf(out, "  name: %s\n", args[0])
		if estimate > 0 {
			fmt.Fprintf(out, "  estimate: %s minutes\n", cli.FormatScore(estimate))
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&taskType, "type", "t", "other", "task type (work, self_care, play, other)")
	addCmd.Flags().Float64VarP(&estimate, "estimate", "e", 0, "time estimate in minutes")
}
