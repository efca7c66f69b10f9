// up.go declares 'dockhand up': resolve the plan, render the artifact, and
// start services on the selected engine.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/dockhand/internal/engine"
	"github.com/example/dockhand/internal/ports"
	"github.com/example/dockhand/internal/render"
	"github.com/spf13/cobra"
)

func newUpCommand(opts *globalOptions) *cobra.Command {
	var (
		basePort        int
		timeout         = 60 * time.Second
		conflictPolicy  string
		detach          bool
		exposeInternals bool
	)
	cmd := &cobra.Command{
		Use:           "up",
		Short:         "Start the planned services on an available engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := opts.profile()
			if err != nil {
				return err
			}
			if !profile.AllowsExecution() {
				return exitWith(exitProfileForbidden, "profile %s is export-only; run 'dockhand export' instead", profile)
			}
			if conflictPolicy != "warn" && conflictPolicy != "fail" {
				return exitWith(exitUsage, "unknown conflict policy %q (expected warn or fail)", conflictPolicy)
			}

			p, err := opts.resolvePlan(profile, basePort, true)
			if err != nil {
				return err
			}
			artifact := opts.artifactPath()
			if err := render.Write(opts.projectName(), p, artifact); err != nil {
				return err
			}

			conflicts := ports.FindConflictingPorts(p.HostPorts(), nil)
			if err := enforceConflictPolicy(profile, conflictPolicy, conflicts, cmd.ErrOrStderr()); err != nil {
				return err
			}

			sel, err := opts.selectEngine(ctx, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Starting %d services via %s (readiness timeout %s)\n", len(p.Services), sel.Provider.ID(), timeout)
			upErr := sel.Provider.Up(ctx, artifact, engine.UpOptions{Detach: detach, ReadinessTimeout: timeout})
			if upErr != nil {
				if errors.Is(upErr, engine.ErrReadinessTimeout) {
					return exitWith(exitReadinessTimeout, "%s", upErr)
				}
				return fmt.Errorf("engine up: %w", upErr)
			}

			opts.saveManifest(p, sel.Provider.ID(), exposeInternals)
			fmt.Fprintf(cmd.OutOrStdout(), "Up: %d services ready (profile %s)\n", len(p.Services), profile)
			return nil
		},
	}
	cmd.Flags().IntVar(&basePort, "base-port", 0, "Offset added to every declared host port")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Readiness timeout for service startup")
	cmd.Flags().StringVar(&conflictPolicy, "conflict-policy", "warn", "What to do when declared host ports are in use (warn, fail)")
	cmd.Flags().BoolVarP(&detach, "detach", "d", true, "Run services in the background")
	cmd.Flags().BoolVar(&exposeInternals, "expose-internals", false, "Record that internal service ports were published")
	return cmd
}
