package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// newSaveCmd creates the save command.
func newSaveCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [json|-]",
		Short: "Persist a JSON value, replacing the stored record",
		Long: `Persist a JSON value under the configured key. The value is read from
the argument, or from stdin when the argument is "-" or missing.

Examples:
  persist save '{"theme":"dark","volume":7}'
  echo '[1,2,3]' | persist save -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			raw, err := readPayload(app.In, args)
			if err != nil {
				return err
			}
			var payload any
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return fmt.Errorf("invalid JSON payload: %w", err)
			}

			if err := app.Bridge.Save(commandContext(cmd), payload); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s %s\n", app.SuccessColor("Saved"), app.Bridge.Key())
			return nil
		},
	}
	return cmd
}

func readPayload(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if in == nil {
		return "", fmt.Errorf("no payload given and stdin unavailable")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", fmt.Errorf("empty payload")
	}
	return raw, nil
}
