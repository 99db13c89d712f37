package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scorersCmd = &cobra.Command{
	Use:   "scorers",
	Short: "List the registered scorers",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		infos := app.Scoring.Scorers()
		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), infos)
		}
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			direction := "higher"
			if !info.HigherIsBetter {
				direction = "lower"
			}
			rows = append(rows, []string{
				info.Name,
				string(info.Bound),
				direction,
				info.Version,
				strings.Join(info.RequiredFields, ","),
			})
		}
		if err := PrintTable(cmd.OutOrStdout(), []string{"Name", "Bound", "Better", "Version", "Fields"}, rows); err != nil {
			return fmt.Errorf("failed to print scorers: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scorersCmd)
}
