// allocator.go detects host-port conflicts and deterministically reassigns
// conflicting ports for non-production plans.

// Package ports guarantees that no two services in a plan end up bound to
// the same host port. Allocation increments from the declared port rather
// than asking the OS for an ephemeral one, so the chosen port is stable
// across render, manifest, and execution.
package ports

import (
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/example/dockhand/internal/plan"
)

// DefaultGuardLimit bounds how many candidate ports are probed per mapping
// before allocation gives up. Override via DOCKHAND_PORT_PROBE_LIMIT.
const DefaultGuardLimit = 200

// Probe reports whether a host port is free. Injectable so tests substitute
// a fake network state instead of binding real sockets.
type Probe func(port int) bool

// NetworkProbe binds a loopback TCP listener to decide availability. The
// listener is released immediately.
func NetworkProbe(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// FindConflictingPorts probes each distinct candidate and returns the ones
// already in use, sorted ascending. Read-only; the plan is not touched.
func FindConflictingPorts(candidates []int, probe Probe) []int {
	if probe == nil {
		probe = NetworkProbe
	}
	seen := make(map[int]bool)
	var conflicts []int
	for _, port := range candidates {
		if port <= 0 || seen[port] {
			continue
		}
		seen[port] = true
		if !probe(port) {
			conflicts = append(conflicts, port)
		}
	}
	sort.Ints(conflicts)
	return conflicts
}

// ExhaustedError reports that no free port was found within the guard limit.
type ExhaustedError struct {
	Service string
	Start   int
	Limit   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ports: no free port for service %q within %d attempts starting at %d", e.Service, e.Limit, e.Start)
}

// Options tune AutoAvoidPorts.
type Options struct {
	// Probe decides availability; nil means NetworkProbe.
	Probe Probe
	// GuardLimit bounds probing per mapping; <= 0 means DefaultGuardLimit.
	GuardLimit int
	// Preferred maps service id to the host port a prior run assigned for
	// that service's first binding. A free, unclaimed preferred port wins
	// over scanning from the declared value, keeping allocations stable
	// across runs.
	Preferred map[string]int
}

// AutoAvoidPorts returns a new Plan in which every host-bound port is free
// on the network and unique within the plan. Ports assigned earlier in the
// walk are reserved in a working set, so two services declaring the same
// nominal port never collide even when both are individually free.
// Container-only mappings pass through unchanged and are never reserved.
func AutoAvoidPorts(p plan.Plan, opts Options) (plan.Plan, error) {
	probe := opts.Probe
	if probe == nil {
		probe = NetworkProbe
	}
	guard := opts.GuardLimit
	if guard <= 0 {
		guard = DefaultGuardLimit
	}

	out := p.Clone()
	taken := make(map[int]bool)
	free := func(port int) bool { return !taken[port] && probe(port) }

	for i := range out.Services {
		svc := &out.Services[i]
		// The manifest records only the first host-bound mapping, so the
		// preferred port applies to that one regardless of where it sits
		// among container-only entries.
		firstHostBound := true
		for j, pm := range svc.Ports {
			if !pm.HostBound() {
				continue
			}
			if firstHostBound {
				firstHostBound = false
				if preferred, ok := opts.Preferred[svc.ID]; ok && preferred > 0 && free(preferred) {
					svc.Ports[j].Host = preferred
					taken[preferred] = true
					continue
				}
			}
			assigned, ok := scan(pm.Host, guard, free)
			if !ok {
				return plan.Plan{}, &ExhaustedError{Service: svc.ID, Start: pm.Host, Limit: guard}
			}
			svc.Ports[j].Host = assigned
			taken[assigned] = true
		}
	}
	return out, nil
}

// scan increments from start until free reports a port, bounded by guard.
func scan(start, guard int, free func(int) bool) (int, bool) {
	for candidate := start; candidate < start+guard; candidate++ {
		if free(candidate) {
			return candidate, true
		}
	}
	return 0, false
}
