// app.go holds the plumbing shared by the dockhand verbs: profile and plan
// resolution, engine selection, conflict policy, and the hint printer.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/example/dockhand/internal/endpoint"
	"github.com/example/dockhand/internal/engine"
	"github.com/example/dockhand/internal/manifest"
	"github.com/example/dockhand/internal/plan"
	"github.com/example/dockhand/internal/ports"
	"github.com/example/dockhand/internal/redact"
	"go.uber.org/zap"
)

// globalOptions are the persistent root flags every verb reads.
type globalOptions struct {
	root        string
	engineID    string
	profileRaw  string
	logLevel    string
	engineOrder []string
	guardLimit  int
	logger      *zap.Logger
}

func newGlobalOptions() *globalOptions {
	return &globalOptions{root: ".", logger: zap.NewNop()}
}

func (g *globalOptions) log() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

func (g *globalOptions) profile() (plan.Profile, error) {
	profile, err := plan.ParseProfile(g.profileRaw)
	if err != nil {
		return profile, exitWith(exitUsage, "%s", err)
	}
	return profile, nil
}

func (g *globalOptions) builder() *plan.Builder {
	return &plan.Builder{Root: g.root}
}

// projectName derives the compose project name from the project root
// directory, normalized to what engines accept.
func (g *globalOptions) projectName() string {
	abs, err := filepath.Abs(g.root)
	if err != nil {
		return "dockhand"
	}
	name := strings.ToLower(filepath.Base(abs))
	name = regexp.MustCompile(`[^a-z0-9_-]`).ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_")
	if name == "" {
		name = "dockhand"
	}
	return name
}

func (g *globalOptions) artifactPath() string {
	return manifest.ArtifactPath(g.root)
}

// resolvePlan runs the Build → shift → auto-avoid pipeline. Auto-avoidance
// only runs when avoid is set and the profile permits it; prior manifest
// allocations seed the preferred ports for stable re-allocation.
func (g *globalOptions) resolvePlan(profile plan.Profile, basePort int, avoid bool) (plan.Plan, error) {
	p := g.builder().Build(profile)
	g.log().Debug("plan resolved", zap.Int("services", len(p.Services)), zap.String("profile", profile.String()))
	p = plan.ShiftBasePorts(p, basePort)
	if !avoid || !profile.AutoAvoidsPorts() {
		return p, nil
	}
	opts := ports.Options{GuardLimit: g.guardLimit}
	if model, ok := manifest.Load(g.root); ok {
		opts.Preferred = make(map[string]int, len(model.Services))
		for id, alloc := range model.Services {
			opts.Preferred[id] = alloc.AssignedPort
		}
	}
	avoided, err := ports.AutoAvoidPorts(p, opts)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("allocate host ports: %w", err)
	}
	for _, svc := range avoided.Services {
		if declared, ok := p.Service(svc.ID); ok {
			for j := range svc.Ports {
				if j < len(declared.Ports) && svc.Ports[j].Host != declared.Ports[j].Host {
					g.log().Debug("port reassigned",
						zap.String("service", svc.ID),
						zap.Int("declared", declared.Ports[j].Host),
						zap.Int("assigned", svc.Ports[j].Host))
				}
			}
		}
	}
	return avoided, nil
}

// selectEngine picks a provider, failing with the engine-unavailable exit
// code when mustBeAvailable is set and nothing responds.
func (g *globalOptions) selectEngine(ctx context.Context, mustBeAvailable bool) (engine.Selection, error) {
	sel := engine.Select(ctx, g.engineID, g.engineOrder)
	if sel.Provider == nil {
		return sel, exitWith(exitEngineUnavailable, "no container engines are registered")
	}
	if mustBeAvailable && !sel.Available {
		return sel, exitWith(exitEngineUnavailable, "no available container engine: %s", sel.Reason)
	}
	return sel, nil
}

// enforceConflictPolicy decides what a set of occupied host ports means:
// any conflict under a prod profile is fatal; otherwise fatal only when the
// caller opted into the fail policy, else warn-and-continue.
func enforceConflictPolicy(profile plan.Profile, policy string, conflicts []int, warnTo io.Writer) error {
	if len(conflicts) == 0 {
		return nil
	}
	if profile == plan.ProfileProd {
		return exitWith(exitPortConflict, "host ports already in use under prod profile: %v", conflicts)
	}
	if policy == "fail" {
		return exitWith(exitPortConflict, "host ports already in use: %v (conflict policy is fail)", conflicts)
	}
	fmt.Fprintf(warnTo, "warning: host ports already in use: %v\n", conflicts)
	return nil
}

// planHint is one service's display row, shared by status and inspect.
// Env is carried unredacted; only the human-readable printers mask values.
type planHint struct {
	Service  string            `json:"service"`
	Image    string            `json:"image"`
	Host     int               `json:"host,omitempty"`
	Scheme   string            `json:"scheme"`
	Endpoint string            `json:"endpoint,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
}

func planHints(p plan.Plan) []planHint {
	hints := make([]planHint, 0, len(p.Services))
	for _, svc := range p.Services {
		hint := planHint{Service: svc.ID, Image: svc.Image}
		if len(svc.Env) > 0 {
			hint.Env = make(map[string]string, len(svc.Env))
			for k, v := range svc.Env {
				if v != nil {
					hint.Env[k] = *v
				} else {
					hint.Env[k] = ""
				}
			}
		}
		for _, pm := range svc.Ports {
			if pm.HostBound() {
				hint.Host = pm.Host
				scheme, pattern := endpoint.Resolve(svc.Image, pm.Container)
				hint.Scheme = scheme
				if pattern != "" {
					hint.Endpoint = strings.NewReplacer("{host}", "localhost", "{port}", fmt.Sprint(pm.Host)).Replace(pattern)
				} else {
					hint.Endpoint = fmt.Sprintf("%s://localhost:%d", scheme, pm.Host)
				}
				break
			}
		}
		if hint.Scheme == "" {
			hint.Scheme, _ = endpoint.Resolve(svc.Image, 0)
		}
		hints = append(hints, hint)
	}
	return hints
}

func printPlanHints(w io.Writer, p plan.Plan, conflicts []int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "SERVICE\tIMAGE\tHOST PORT\tENDPOINT")
	for _, hint := range planHints(p) {
		host := "-"
		if hint.Host > 0 {
			host = fmt.Sprint(hint.Host)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", hint.Service, hint.Image, host, hint.Endpoint)
	}
	if len(conflicts) > 0 {
		fmt.Fprintf(tw, "\nCONFLICTS\t%v\n", conflicts)
	}
}

// printEnv lists a service's environment with credential-looking values
// masked for human output.
func printEnv(w io.Writer, svc plan.ServiceSpec) {
	keys := make([]string, 0, len(svc.Env))
	for k := range svc.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := ""
		if v := svc.Env[k]; v != nil {
			value = redact.EnvValue(k, *v)
		}
		fmt.Fprintf(w, "    %s=%s\n", k, value)
	}
}

// saveManifest records the run's identity, options, and allocations.
// Persistence is best-effort; failures are reported to stderr and ignored.
func (g *globalOptions) saveManifest(p plan.Plan, engineID string, exposeInternals bool) {
	model, ok := manifest.Load(g.root)
	if !ok {
		model = &manifest.Model{}
	}
	name := g.projectName()
	model.App.ID = name
	model.App.Name = name
	if model.App.Code == "" {
		model.App.Code = shortCode(name)
	}
	model.Options.ExposeInternals = exposeInternals
	model.Options.LastEngine = engineID
	model.Options.LastProfile = p.Profile.String()
	model.Services = map[string]manifest.Allocation{}
	for i, svc := range p.Services {
		for _, pm := range svc.Ports {
			if !pm.HostBound() {
				continue
			}
			model.Services[svc.ID] = manifest.Allocation{AssignedPort: pm.Host}
			if i == 0 {
				if model.App.DefaultPublicPort == 0 {
					model.App.DefaultPublicPort = pm.Host
				}
				model.App.AssignedPublicPort = pm.Host
			}
			break
		}
	}
	if err := manifest.Save(g.root, model); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not persist launch manifest: %v\n", err)
	}
}

func shortCode(name string) string {
	code := regexp.MustCompile(`[^a-z0-9]`).ReplaceAllString(strings.ToLower(name), "")
	if len(code) > 8 {
		code = code[:8]
	}
	return code
}
