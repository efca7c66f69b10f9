// export.go declares 'dockhand export': render the compose artifact without
// touching an engine.

package main

import (
	"fmt"

	"github.com/example/dockhand/internal/ports"
	"github.com/example/dockhand/internal/render"
	"github.com/spf13/cobra"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		basePort int
		output   string
	)
	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Render the compose artifact for the resolved plan",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := opts.profile()
			if err != nil {
				return err
			}
			p, err := opts.resolvePlan(profile, basePort, false)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = opts.artifactPath()
			}
			if err := render.Write(opts.projectName(), p, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d services, profile %s)\n", path, len(p.Services), profile)

			// Conflicts are informational here; export never executes.
			if conflicts := ports.FindConflictingPorts(p.HostPorts(), nil); len(conflicts) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: host ports already in use: %v\n", conflicts)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&basePort, "base-port", 0, "Offset added to every declared host port")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Artifact path (default .dockhand/compose.yaml)")
	return cmd
}
