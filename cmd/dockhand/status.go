// status.go declares 'dockhand status': engine-reported state and live
// ports next to the plan-derived hints.

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/example/dockhand/internal/engine"
	"github.com/example/dockhand/internal/plan"
	"github.com/example/dockhand/internal/ports"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newStatusCommand(opts *globalOptions) *cobra.Command {
	var (
		service  string
		basePort int
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show engine status, live ports, and planned endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := opts.profile()
			if err != nil {
				return err
			}

			sel, err := opts.selectEngine(ctx, false)
			if err != nil {
				return err
			}

			// Live state and plan hints are independent; collect them
			// concurrently and join at the end.
			var (
				report  engine.StatusReport
				live    []engine.PortBinding
				hints   plan.Plan
				engErr  error
				liveErr error
			)
			g, gctx := errgroup.WithContext(ctx)
			if sel.Available {
				g.Go(func() error {
					report, engErr = sel.Provider.Status(gctx, opts.artifactPath(), engine.StatusOptions{Service: service})
					return nil
				})
				g.Go(func() error {
					live, liveErr = sel.Provider.LivePorts(gctx, opts.artifactPath())
					return nil
				})
			}
			g.Go(func() error {
				p, err := opts.resolvePlan(profile, basePort, true)
				if err != nil {
					return err
				}
				hints = p
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			conflicts := ports.FindConflictingPorts(hints.HostPorts(), nil)

			if jsonOut {
				payload := map[string]any{
					"engineAvailable": sel.Available,
					"plan":            planHints(hints),
					"conflicts":       conflicts,
				}
				// A failed engine query must stay distinguishable from an
				// empty stack for machine consumers.
				if sel.Available {
					if engErr != nil {
						payload["statusError"] = engErr.Error()
					} else {
						payload["status"] = report
					}
					if liveErr != nil {
						payload["livePortsError"] = liveErr.Error()
					} else {
						payload["livePorts"] = live
					}
				}
				if !sel.Available {
					payload["reason"] = sel.Reason
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			if !sel.Available {
				fmt.Fprintf(out, "Engine: unavailable (%s)\n\n", sel.Reason)
			} else if engErr != nil {
				fmt.Fprintf(out, "Engine: %s (status error: %v)\n\n", sel.Provider.ID(), engErr)
			} else {
				fmt.Fprintf(out, "Engine: %s %s\n", report.Provider, report.EngineVersion)
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SERVICE\tSTATE\tHEALTH\tLIVE PORTS")
				for _, svc := range report.Services {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", svc.Service, svc.State, orDash(svc.Health), formatLivePorts(live, svc.Service))
				}
				tw.Flush()
				fmt.Fprintln(out)
			}

			fmt.Fprintln(out, "Planned endpoints:")
			printPlanHints(out, hints, conflicts)
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "Limit to one service")
	cmd.Flags().IntVar(&basePort, "base-port", 0, "Offset added to every declared host port")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}

func formatLivePorts(live []engine.PortBinding, service string) string {
	out := ""
	for _, binding := range live {
		if binding.Service != service {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%d->%d/%s", binding.Host, binding.Container, binding.Protocol)
	}
	return orDash(out)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
