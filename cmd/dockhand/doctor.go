// doctor.go declares 'dockhand doctor': report engine availability and
// metadata; the exit code reflects availability.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/example/dockhand/internal/plan"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDoctorCommand(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose container engine availability",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sel, err := opts.selectEngine(ctx, false)
			if err != nil {
				return err
			}
			if !sel.Available {
				if jsonOut {
					payload := map[string]any{"available": false, "reason": sel.Reason}
					if err := json.NewEncoder(cmd.OutOrStdout()).Encode(payload); err != nil {
						return err
					}
					return exitWith(exitEngineUnavailable, "no available container engine")
				}
				return exitWith(exitEngineUnavailable, "no available container engine: %s", sel.Reason)
			}
			info, err := sel.Provider.EngineInfo(ctx)
			if err != nil {
				return fmt.Errorf("engine info: %w", err)
			}
			var warnings []string
			if profile, err := opts.profile(); err == nil {
				warnings = plan.Lint(opts.builder().Build(profile))
			}
			if jsonOut {
				payload := map[string]any{"available": true, "engine": info, "warnings": warnings}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}
			ok := color.New(color.FgGreen).Sprint("available")
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (version %s, endpoint %s)\n", info.Name, ok, info.Version, info.Endpoint)
			warn := color.New(color.FgYellow)
			for _, w := range warnings {
				warn.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}
