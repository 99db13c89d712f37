package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	"github.com/spf13/cobra"
)

var (
	baselineScope  string
	baselineWindow int
)

var baselineCmd = &cobra.Command{
	Use:   "baseline <metric>",
	Short: "Show the rolling baseline of a metric",
	Long: `Show the mean of a raw metric over completed instances in the
baseline window. A scope with too few samples falls back from task to
task type to global.

Scopes:
  global          every instance (default)
  type:<type>     instances of work, self_care, play or other tasks
  task:<id>       instances of one task

Examples:
  pulse baseline actual_relief
  pulse baseline duration_minutes --scope type:work --window 14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		scope, err := domain.ParseScope(baselineScope)
		if err != nil {
			return err
		}

		baseline, err := app.Scoring.GetBaseline(cmd.Context(), args[0], scope, baselineWindow)
		if err != nil {
			return fmt.Errorf("failed to compute baseline: %w", err)
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), baseline)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s baseline: %s\n", baseline.Metric, FormatScore(baseline.Value))
		fmt.Fprintf(out, "  scope:   %s (resolved %s)\n", baseline.Scope, baseline.ResolvedScope)
		fmt.Fprintf(out, "  samples: %d\n", baseline.Samples)
		fmt.Fprintf(out, "  window:  %s - %s\n",
			baseline.WindowStart.Format("2006-01-02"),
			baseline.WindowEnd.Format("2006-01-02"),
		)
		if len(baseline.Annotations) > 0 {
			fmt.Fprintf(out, "  note:    %s\n", strings.Join(baseline.Annotations, "; "))
		}
		return nil
	},
}

func init() {
	baselineCmd.Flags().StringVarP(&baselineScope, "scope", "s", "global", "baseline scope (global, type:<type>, task:<id>)")
	baselineCmd.Flags().IntVar(&baselineWindow, "window", 0, "window in days (default from configuration)")
	rootCmd.AddCommand(baselineCmd)
}
