package cli

import (
	"fmt"

	"github.com/felixgeelhaar/pulse/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the configured backends",
	Long: `Ping the telemetry database, the Redis cache store and the RabbitMQ
broker when they are configured. A database failure is unhealthy; the
cache store and broker only degrade the service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if app.Health == nil {
			return fmt.Errorf("health checks not configured")
		}

		report := app.Health.GetOverallHealth(cmd.Context())
		if JSONOutput() {
			if err := PrintJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", report.Status)
			for _, name := range app.Health.Names() {
				check := report.Checks[name]
				fmt.Fprintf(out, "  %-10s %-10s %s\n", name, check.Status, check.Message)
			}
		}

		if report.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("pulse is unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
