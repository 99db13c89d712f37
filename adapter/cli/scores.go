package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scoreNames []string

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Score every completed instance",
	Long: `Print a table of component scores for every completed instance.
Without --name every registered scorer is computed.

Examples:
  pulse scores
  pulse scores --name execution --name productivity --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		rows, err := app.Scoring.ScoreTable(cmd.Context(), scoreNames)
		if err != nil {
			return fmt.Errorf("failed to score instances: %w", err)
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), rows)
		}
		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No completed instances.")
			return nil
		}

		names := scoreNames
		if len(names) == 0 {
			names = app.Scoring.Registry().Names()
		}
		header := append([]string{"Instance", "Type", "Completed"}, names...)
		table := make([][]string, 0, len(rows))
		for _, row := range rows {
			line := []string{
				ShortID(row.InstanceID.String()),
				string(row.TaskType),
				row.CompletedAt.Format("2006-01-02 15:04"),
			}
			for _, name := range names {
				line = append(line, FormatScore(row.Scores[name]))
			}
			table = append(table, line)
		}
		return PrintTable(out, header, table)
	},
}

func init() {
	scoresCmd.Flags().StringArrayVar(&scoreNames, "name", nil, "scorer to include (repeatable)")
	rootCmd.AddCommand(scoresCmd)
}
