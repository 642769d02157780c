package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-persist/internal/logging"
	"github.com/goliatone/go-persist/pkg/jsapp"
	"github.com/goliatone/go-persist/pkg/ports"
)

// newRunCmd creates the run command.
func newRunCmd(provider *AppProvider) *cobra.Command {
	var eval string
	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "Run a JavaScript app connected to the store through ports",
		Long: `Run a JavaScript app with app.ports.saveToStorage,
app.ports.doLoadFromStorage and app.ports.loadFromStorage wired to the
configured store. With --eval, the expression is evaluated after the script
finishes and its value printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			ctx := commandContext(cmd)
			set := ports.NewSet()
			detach := app.Bridge.Attach(ctx, set)
			defer detach()

			rt, err := jsapp.New(set, jsapp.WithConsole(logging.ConsoleFunc(app.Logger)))
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Run(ctx, args[0], string(source)); err != nil {
				return err
			}
			if eval == "" {
				return nil
			}
			value, err := rt.Eval(eval)
			if err != nil {
				return err
			}
			return writeJSON(app.Out, value, false)
		},
	}
	cmd.Flags().StringVar(&eval, "eval", "", "Expression to evaluate after the script and print")
	return cmd
}
