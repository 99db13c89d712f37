// Package instance implements the "pulse instance" command group.
package instance

import (
	"fmt"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the instance command group
var Cmd = &cobra.Command{
	Use:     "instance",
	Aliases: []string{"inst"},
	Short:   "Record task instances",
	Long: `Record attempts at a task: create an instance with your predictions,
start it, then complete it with the actual outcome or cancel it.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(startCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(listCmd)
}

// optionalFloat returns a pointer to v when the flag was given.
func optionalFloat(cmd *cobra.Command, flag string, v float64) *float64 {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.CreateInstanceHandler == nil {
		return nil, cli.ErrAppNotInitialized
	}
	return app, nil
}
