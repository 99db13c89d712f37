package task

import (
	"fmt"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
	"github.com/spf13/cobra"
)

var filterType string

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List task templates",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListTasksHandler == nil {
			return cli.ErrAppNotInitialized
		}

		tasks, err := app.ListTasksHandler.Handle(cmd.Context(), queries.ListTasksQuery{Type: filterType})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), tasks)
		}
		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}
		rows := make([][]string, 0, len(tasks))
		for _, t := range tasks {
			rows = append(rows, []string{
				t.ID.String(),
				t.Name,
				t.Type,
				cli.FormatScore(t.TimeEstimateMinutes),
			})
		}
		return cli.PrintTable(out, []string{"ID", "Name", "Type", "Est (min)"}, rows)
	},
}

func init() {
	listCmd.Flags().StringVarP(&filterType, "type", "t", "", "only tasks of this type")
}
