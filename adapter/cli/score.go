package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score <scorer> <instance-id>",
	Short: "Compute one component score for an instance",
	Long: `Compute a component score (0-100, productivity in points) for a task
instance. Run "pulse scorers" to list the available scorers.

Examples:
  pulse score execution 6f1c...
  pulse score net_relief 6f1c... --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		instanceID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid instance ID: %w", err)
		}

		score, err := app.Scoring.ComputeComponentScore(cmd.Context(), args[0], instanceID)
		if err != nil {
			return fmt.Errorf("failed to compute score: %w", err)
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), score)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s (%s, %s)\n", score.Name, FormatScore(score.Value), score.Bound, score.Version)
		if len(score.Annotations) > 0 {
			fmt.Fprintf(out, "  note: %s\n", strings.Join(score.Annotations, "; "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
