// logs.go declares 'dockhand logs': stream engine logs, following until the
// caller cancels.

package main

import (
	"fmt"

	"github.com/example/dockhand/internal/engine"
	"github.com/spf13/cobra"
)

func newLogsCommand(opts *globalOptions) *cobra.Command {
	var (
		follow  bool
		tail    int
		since   string
		service string
	)
	cmd := &cobra.Command{
		Use:           "logs [SERVICE]",
		Short:         "Stream service logs from the engine",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				service = args[0]
			}
			sel, err := opts.selectEngine(ctx, true)
			if err != nil {
				return err
			}
			lines, err := sel.Provider.Logs(ctx, opts.artifactPath(), engine.LogsOptions{
				Service: service,
				Follow:  follow,
				Tail:    tail,
				Since:   since,
			})
			if err != nil {
				return fmt.Errorf("engine logs: %w", err)
			}
			for line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			// Follow mode only ends via cancellation; that is a clean exit.
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output until interrupted")
	cmd.Flags().IntVar(&tail, "tail", 0, "Number of trailing lines to show per service")
	cmd.Flags().StringVar(&since, "since", "", "Only show logs newer than this (e.g. 10m, 1h)")
	cmd.Flags().StringVar(&service, "service", "", "Limit to one service")
	return cmd
}
