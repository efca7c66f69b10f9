// down.go declares 'dockhand down': stop and tear down the running stack.

package main

import (
	"fmt"

	"github.com/example/dockhand/internal/engine"
	"github.com/spf13/cobra"
)

func newDownCommand(opts *globalOptions) *cobra.Command {
	var removeVolumes bool
	cmd := &cobra.Command{
		Use:           "down",
		Short:         "Stop the stack and tear it down",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sel, err := opts.selectEngine(ctx, true)
			if err != nil {
				return err
			}
			if err := sel.Provider.Down(ctx, opts.artifactPath(), engine.DownOptions{RemoveVolumes: removeVolumes}); err != nil {
				return fmt.Errorf("engine down: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Down: stack stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&removeVolumes, "remove-volumes", false, "Also remove named volumes")
	return cmd
}
