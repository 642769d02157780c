package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// newLoadCmd creates the load command.
func newLoadCmd(provider *AppProvider) *cobra.Command {
	var (
		quiet  bool
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Print the stored record as JSON",
		Long: `Print the stored record as JSON. A missing or unreadable record prints
null, or nothing with --quiet. A record that cannot be decoded is removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			resp, err := app.Bridge.Load(commandContext(cmd))
			if err != nil {
				return err
			}
			if !resp.Found && quiet {
				return nil
			}
			return writeJSON(app.Out, resp.Value, pretty)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing when no record is stored")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	return cmd
}

func writeJSON(w io.Writer, value any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
