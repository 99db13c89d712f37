package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var compositeWeights []string

var compositeCmd = &cobra.Command{
	Use:   "composite <instance-id>",
	Short: "Combine component scores with weights",
	Long: `Compute a weighted composite of component scores for an instance.
Components without data are left out. Without --weight the configured
default weights apply.

Examples:
  pulse composite 6f1c...
  pulse composite 6f1c... --weight execution=2 --weight relief=1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid instance ID: %w", err)
		}
		weights, err := ParseWeights(compositeWeights)
		if err != nil {
			return err
		}

		result, err := app.Scoring.ComputeComposite(cmd.Context(), weights, instanceID)
		if err != nil {
			return fmt.Errorf("failed to compute composite: %w", err)
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), result)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "composite: %s\n", FormatScore(result.Score.Value))

		names := make([]string, 0, len(result.Weights))
		for name := range result.Weights {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			value := "-"
			if v, ok := result.Components[name]; ok {
				value = FormatScore(v)
			}
			rows = append(rows, []string{name, FormatScore(result.Weights[name]), value})
		}
		if err := PrintTable(out, []string{"Component", "Weight", "Score"}, rows); err != nil {
			return err
		}
		if len(result.Score.Annotations) > 0 {
			fmt.Fprintf(out, "note: %s\n", strings.Join(result.Score.Annotations, "; "))
		}
		return nil
	},
}

func init() {
	compositeCmd.Flags().StringArrayVarP(&compositeWeights, "weight", "w", nil, "component weight as name=weight (repeatable)")
	rootCmd.AddCommand(compositeCmd)
}
