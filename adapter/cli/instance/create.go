package instance

import (
	"fmt"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/spf13/cobra"
)

var (
	expectedRelief   float64
	expectedAversion float64
	predictedLoad    float64
	predictedEmotion float64
	predictedMinutes float64
)

var createCmd = &cobra.Command{
	Use:   "create [task-id]",
	Short: "Create an instance with predictions",
	Long: `Create an active instance of a task. Every prediction is optional;
the time estimate defaults to the task's estimate.

Examples:
  pulse instance create 3b2a... --relief 60 --aversion 40
  pulse instance create 3b2a... --estimate 25 --cognitive-load 70`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		taskID, err := parseID(args[0], "task")
		if err != nil {
			return err
		}

		result, err := app.CreateInstanceHandler.Handle(cmd.Context(), commands.CreateInstanceCommand{
			TaskID: taskID,
			Predicted: domain.Predicted{
				ExpectedRelief:      optionalFloat(cmd, "relief", expectedRelief),
				ExpectedAversion:    optionalFloat(cmd, "aversion", expectedAversion),
				CognitiveLoad:       optionalFloat(cmd, "cognitive-load", predictedLoad),
				EmotionalLoad:       optionalFloat(cmd, "emotional-load", predictedEmotion),
				TimeEstimateMinutes: optionalFloat(cmd, "estimate", predictedMinutes),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create instance: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]string{"instance_id": result.InstanceID.String()})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Instance created: %s\n", result.InstanceID)
		return nil
	},
}

func init() {
	createCmd.Flags().Float64Var(&expectedRelief, "relief", 0, "expected relief (0-100)")
	createCmd.Flags().Float64Var(&expectedAversion, "aversion", 0, "expected aversion (0-100)")
	createCmd.Flags().Float64Var(&predictedLoad, "cognitive-load", 0, "expected cognitive load (0-100)")
	createCmd.Flags().Float64Var(&predictedEmotion, "emotional-load", 0, "expected emotional load (0-100)")
	createCmd.Flags().Float64VarP(&predictedMinutes, "estimate", "e", 0, "time estimate in minutes")
}
