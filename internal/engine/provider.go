// provider.go declares the capability interface implemented per container
// engine and the ordered registration used to pick one at runtime.

// Package engine abstracts over heterogeneous container engines. The core
// never assumes a specific engine beyond this interface; Docker and Podman
// register themselves and selection walks a preference-ordered list.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrReadinessTimeout distinguishes "services never became ready in time"
// from engine absence or generic failure, so callers can map it to its own
// exit code.
var ErrReadinessTimeout = errors.New("services did not become ready before the timeout")

// Info is the engine identity used for diagnostics.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Endpoint string `json:"endpoint"`
}

// ServiceState is one service's runtime state as reported by the engine.
type ServiceState struct {
	Service string `json:"service"`
	State   string `json:"state"`
	Health  string `json:"health,omitempty"`
}

// StatusReport aggregates engine-level status.
type StatusReport struct {
	Provider      string         `json:"provider"`
	EngineVersion string         `json:"engineVersion"`
	Services      []ServiceState `json:"services"`
}

// PortBinding is an actual runtime port mapping, as opposed to the
// statically planned one.
type PortBinding struct {
	Service   string `json:"service"`
	Host      int    `json:"host"`
	Container int    `json:"container"`
	Protocol  string `json:"protocol"`
}

// UpOptions tune a live start.
type UpOptions struct {
	Detach           bool
	ReadinessTimeout time.Duration
}

// DownOptions tune teardown.
type DownOptions struct {
	RemoveVolumes bool
}

// StatusOptions scope a status query.
type StatusOptions struct {
	Service string
}

// LogsOptions scope a log stream. Follow makes the stream long-lived; the
// caller's context is the only exit path then.
type LogsOptions struct {
	Service string
	Follow  bool
	Tail    int
	Since   string
}

// Provider is the per-engine capability surface.
type Provider interface {
	// ID is the stable engine identifier ("docker", "podman").
	ID() string
	// IsAvailable probes engine reachability. Absence is not an error:
	// ok=false with a human-readable reason.
	IsAvailable(ctx context.Context) (bool, string)
	// EngineInfo returns identity metadata for diagnostics.
	EngineInfo(ctx context.Context) (Info, error)
	// Up starts the services in the rendered artifact, honoring the
	// readiness timeout; exceeding it yields ErrReadinessTimeout.
	Up(ctx context.Context, composePath string, opts UpOptions) error
	// Down stops and tears down, optionally pruning volumes.
	Down(ctx context.Context, composePath string, opts DownOptions) error
	// Status reports per-service runtime state.
	Status(ctx context.Context, composePath string, opts StatusOptions) (StatusReport, error)
	// Logs streams log lines. The channel closes when the stream ends or
	// the context is canceled.
	Logs(ctx context.Context, composePath string, opts LogsOptions) (<-chan string, error)
	// LivePorts queries the engine's actual runtime port mappings.
	LivePorts(ctx context.Context, composePath string) ([]PortBinding, error)
}

// Factory constructs a provider instance.
type Factory func() Provider

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
	defOrder  []string
)

// Register adds an engine factory. Registration order defines the default
// preference order; providers register from init.
func Register(id string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := factories[id]; !exists {
		defOrder = append(defOrder, id)
	}
	factories[id] = f
}

// DefaultOrder returns the registered preference order.
func DefaultOrder() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	return append([]string(nil), defOrder...)
}

// New instantiates the provider with the given id, if registered.
func New(id string) (Provider, bool) {
	regMu.RLock()
	f, ok := factories[strings.ToLower(strings.TrimSpace(id))]
	regMu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Selection is the outcome of engine selection. Provider is always non-nil
// when any engine is registered, even if none is available, so that
// non-executing flows (export, dry-run, explain) still function.
type Selection struct {
	Provider  Provider
	Available bool
	// Reason explains unavailability, per probed engine.
	Reason string
}

// Select picks an engine. An explicitly requested id is tried first and
// used only when available; otherwise the preference order decides. When
// nothing is available the first preference still backs the Selection with
// Available=false.
func Select(ctx context.Context, explicit string, order []string) Selection {
	var reasons []string

	if explicit != "" {
		if p, ok := New(explicit); ok {
			if ok, reason := p.IsAvailable(ctx); ok {
				return Selection{Provider: p, Available: true}
			} else {
				reasons = append(reasons, p.ID()+": "+reason)
			}
		} else {
			reasons = append(reasons, "unknown engine "+explicit)
		}
	}

	if len(order) == 0 {
		order = DefaultOrder()
	}
	var fallback Provider
	for _, id := range order {
		p, ok := New(id)
		if !ok {
			continue
		}
		if fallback == nil {
			fallback = p
		}
		if ok, reason := p.IsAvailable(ctx); ok {
			return Selection{Provider: p, Available: true}
		} else {
			reasons = append(reasons, p.ID()+": "+reason)
		}
	}
	return Selection{Provider: fallback, Available: false, Reason: strings.Join(reasons, "; ")}
}
