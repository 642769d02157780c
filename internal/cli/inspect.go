package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-persist/pkg/inspect"
)

// newInspectCmd creates the inspect command.
func newInspectCmd(provider *AppProvider) *cobra.Command {
	var (
		engine string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <expression>",
		Short: "Evaluate an expression against the stored record",
		Long: fmt.Sprintf(`Evaluate a read-only expression against the stored record. Top-level
record fields are bound as variables, along with "record" and "now".

Engines: %s

Examples:
  persist inspect 'theme == "dark"'
  persist inspect --engine cel 'size(record) > 0'
  persist inspect --engine js 'Object.keys(record).length'`, strings.Join(inspect.Engines(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			evaluator, err := inspect.New(engine)
			if err != nil {
				return err
			}
			result, err := inspect.Query(commandContext(cmd), app.Bridge, evaluator, args[0])
			if err != nil {
				return err
			}
			return writeJSON(app.Out, result, pretty)
		},
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", "expr", "Expression engine")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	return cmd
}
