package instance

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	listStatuses []string
	listTaskID   string
	listType     string
	listSince    string
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List instances",
	Long: `List instances, most recent last.

Examples:
  pulse instance list --status completed --limit 20
  pulse instance list --type work --since 2026-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListInstancesHandler == nil {
			return cli.ErrAppNotInitialized
		}

		query := queries.ListInstancesQuery{
			Statuses: listStatuses,
			TaskType: listType,
			Limit:    listLimit,
		}
		if listTaskID != "" {
			id, err := uuid.Parse(listTaskID)
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			query.TaskIDs = []uuid.UUID{id}
		}
		if listSince != "" {
			since, err := time.Parse("2006-01-02", listSince)
			if err != nil {
				return fmt.Errorf("invalid --since format, use YYYY-MM-DD: %w", err)
			}
			query.CompletedAfter = &since
		}

		instances, err := app.ListInstancesHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list instances: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), instances)
		}
		out := cmd.OutOrStdout()
		if len(instances) == 0 {
			fmt.Fprintln(out, "No instances found.")
			return nil
		}
		rows := make([][]string, 0, len(instances))
		for _, inst := range instances {
			completed := "-"
			if inst.CompletedAt != nil {
				completed = inst.CompletedAt.Format("2006-01-02 15:04")
			}
			rows = append(rows, []string{
				inst.ID.String(),
				inst.TaskName,
				inst.Status,
				inst.InitializedAt.Format("2006-01-02 15:04"),
				completed,
			})
		}
		return cli.PrintTable(out, []string{"ID", "Task", "Status", "Created", "Completed"}, rows)
	},
}

func init() {
	listCmd.Flags().StringArrayVarP(&listStatuses, "status", "s", nil, "status filter: active, completed, cancelled (repeatable)")
	listCmd.Flags().StringVar(&listTaskID, "task", "", "only instances of this task")
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "only instances of tasks with this type")
	listCmd.Flags().StringVar(&listSince, "since", "", "only instances completed on or after this date (YYYY-MM-DD)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "keep only the most recent instances")
}
