package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newResetCmd creates the reset command.
func newResetCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Bridge.Clear(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s %s\n", app.SuccessColor("Removed"), app.Bridge.Key())
			return nil
		},
	}
}
