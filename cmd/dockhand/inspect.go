// inspect.go declares 'dockhand inspect': detect the project, probe every
// known engine concurrently, and explain what a run would do.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/dockhand/internal/engine"
	"github.com/example/dockhand/internal/ports"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type engineProbe struct {
	Engine    string `json:"engine"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var (
		basePort int
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:           "inspect",
		Short:         "Explain what dockhand sees in this project",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := opts.profile()
			if err != nil {
				return err
			}

			descriptor, hasDescriptor := opts.builder().DetectDescriptor()
			_, artifactErr := os.Stat(opts.artifactPath())
			if !hasDescriptor && artifactErr != nil {
				if jsonOut {
					_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"detected": false})
				}
				return exitWith(exitNotDetected, "no dockhand project detected in %s (no descriptor or rendered artifact)", opts.root)
			}

			// Each engine probe is an independent network call; run them
			// concurrently and join.
			order := opts.engineOrder
			if len(order) == 0 {
				order = engine.DefaultOrder()
			}
			// Each goroutine owns one slice slot, so no extra locking.
			probes := make([]engineProbe, len(order))
			g, gctx := errgroup.WithContext(ctx)
			for i, id := range order {
				i, id := i, id
				g.Go(func() error {
					probe := engineProbe{Engine: id}
					if p, ok := engine.New(id); ok {
						probe.Available, probe.Reason = p.IsAvailable(gctx)
					} else {
						probe.Reason = "not registered"
					}
					probes[i] = probe
					return nil
				})
			}

			p, err := opts.resolvePlan(profile, basePort, true)
			if err != nil {
				return err
			}
			conflicts := ports.FindConflictingPorts(p.HostPorts(), nil)
			if err := g.Wait(); err != nil {
				return err
			}

			if jsonOut {
				payload := map[string]any{
					"detected":  true,
					"engines":   probes,
					"plan":      planHints(p),
					"conflicts": conflicts,
				}
				if hasDescriptor {
					payload["descriptor"] = descriptor
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			if hasDescriptor {
				fmt.Fprintf(out, "Project: descriptor %s\n", descriptor)
			} else {
				fmt.Fprintf(out, "Project: rendered artifact %s\n", opts.artifactPath())
			}
			fmt.Fprintln(out, "Engines:")
			for _, probe := range probes {
				if probe.Available {
					fmt.Fprintf(out, "  %s: %s\n", probe.Engine, color.New(color.FgGreen).Sprint("available"))
				} else {
					fmt.Fprintf(out, "  %s: %s (%s)\n", probe.Engine, color.New(color.FgYellow).Sprint("unavailable"), probe.Reason)
				}
			}
			fmt.Fprintf(out, "\nPlan (profile %s):\n", profile)
			printPlanHints(out, p, conflicts)
			for _, svc := range p.Services {
				if len(svc.Env) > 0 {
					fmt.Fprintf(out, "  %s environment:\n", svc.ID)
					printEnv(out, svc)
				}
			}
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  dockhand export   # render the compose artifact")
			fmt.Fprintln(out, "  dockhand up       # start the services")
			fmt.Fprintln(out, "  dockhand status   # check readiness and live ports")
			return nil
		},
	}
	cmd.Flags().IntVar(&basePort, "base-port", 0, "Offset added to every declared host port")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}
