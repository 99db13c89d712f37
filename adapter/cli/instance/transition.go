package instance

import (
	"fmt"

	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [instance-id]",
	Short: "Record that work on an instance began",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "instance")
		if err != nil {
			return err
		}

		inst, err := app.StartInstanceHandler.Handle(cmd.Context(), commands.StartInstanceCommand{InstanceID: id})
		if err != nil {
			return fmt.Errorf("failed to start instance: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Instance started: %s at %s\n", inst.ID, inst.StartedAt.Format("15:04"))
		return nil
	},
}

var (
	actualRelief     float64
	actualAversion   float64
	actualCompletion float64
	actualMinutes    float64
	actualLoad       float64
	actualEmotion    float64
)

var completeCmd = &cobra.Command{
	Use:   "complete [instance-id]",
	Short: "Complete an instance with the actual outcome",
	Long: `Complete an active instance. Net relief and its serendipity and
disappointment split are computed once, now. Without --duration the time
since start is used.

Examples:
  pulse instance complete 6f1c... --relief 80 --completion 100
  pulse instance complete 6f1c... --relief 30 --duration 55 --cognitive-load 80`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "instance")
		if err != nil {
			return err
		}

		inst, err := app.CompleteInstanceHandler.Handle(cmd.Context(), commands.CompleteInstanceCommand{
			InstanceID: id,
			Actual: domain.Actual{
				ActualRelief:      optionalFloat(cmd, "relief", actualRelief),
				ActualAversion:    optionalFloat(cmd, "aversion", actualAversion),
				CompletionPercent: optionalFloat(cmd, "completion", actualCompletion),
				DurationMinutes:   optionalFloat(cmd, "duration", actualMinutes),
				CognitiveLoad:     optionalFloat(cmd, "cognitive-load", actualLoad),
				EmotionalLoad:     optionalFloat(cmd, "emotional-load", actualEmotion),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to complete instance: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Instance completed: %s\n", inst.ID)
		if inst.Derived != nil {
			fmt.Fprintf(out, "  net relief: %.2f\n", inst.Derived.NetRelief)
		}
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [instance-id]",
	Short: "Cancel an active instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "instance")
		if err != nil {
			return err
		}

		if _, err := app.CancelInstanceHandler.Handle(cmd.Context(), commands.CancelInstanceCommand{InstanceID: id}); err != nil {
			return fmt.Errorf("failed to cancel instance: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Instance cancelled: %s\n", id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete [instance-id]",
	Aliases: []string{"rm"},
	Short:   "Delete an instance from the history",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "instance")
		if err != nil {
			return err
		}

		if _, err := app.DeleteInstanceHandler.Handle(cmd.Context(), commands.DeleteInstanceCommand{InstanceID: id}); err != nil {
			return fmt.Errorf("failed to delete instance: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Instance deleted: %s\n", id)
		return nil
	},
}

func init() {
	completeCmd.Flags().Float64Var(&actualRelief, "relief", 0, "actual relief (0-100)")
	completeCmd.Flags().Float64Var(&actualAversion, "aversion", 0, "actual aversion (0-100)")
	completeCmd.Flags().Float64Var(&actualCompletion, "completion", 0, "completion percent")
	completeCmd.Flags().Float64VarP(&actualMinutes, "duration", "d", 0, "actual duration in minutes")
	completeCmd.Flags().Float64Var(&actualLoad, "cognitive-load", 0, "cognitive load (0-100)")
	completeCmd.Flags().Float64Var(&actualEmotion, "emotional-load", 0, "emotional load (0-100)")
}
