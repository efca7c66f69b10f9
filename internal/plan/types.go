// types.go defines the immutable planning model: profiles, service specs, and plans.

// Package plan resolves a declarative service description into a Plan, the
// fully-resolved set of services a single dockhand invocation operates on.
// Plans are value types; every transform returns a new Plan instead of
// mutating a shared one.
package plan

import (
	"fmt"
	"strings"
	"time"
)

// Profile is the deployment context gating which operations are permitted.
type Profile int

const (
	ProfileLocal Profile = iota
	ProfileCi
	ProfileStaging
	ProfileProd
)

var profileNames = map[Profile]string{
	ProfileLocal:   "local",
	ProfileCi:      "ci",
	ProfileStaging: "staging",
	ProfileProd:    "prod",
}

func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("profile(%d)", int(p))
}

// ParseProfile maps a user-supplied profile name to a Profile.
func ParseProfile(value string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "local":
		return ProfileLocal, nil
	case "ci":
		return ProfileCi, nil
	case "staging":
		return ProfileStaging, nil
	case "prod", "production":
		return ProfileProd, nil
	}
	return ProfileLocal, fmt.Errorf("unknown profile %q (expected local, ci, staging, or prod)", value)
}

// AllowsExecution reports whether live engine execution (up) is permitted.
// Staging and Prod are export-only contexts.
func (p Profile) AllowsExecution() bool {
	return p == ProfileLocal || p == ProfileCi
}

// AutoAvoidsPorts reports whether host ports may be reassigned to dodge
// conflicts. Prod ports are contractual and never moved.
func (p Profile) AutoAvoidsPorts() bool {
	return p != ProfileProd
}

// PortMapping pairs a host port with a container port. Host <= 0 means
// container-only: the port is exposed inside the network but never bound on
// the host, and the allocator leaves it untouched.
type PortMapping struct {
	Host      int
	Container int
}

// HostBound reports whether the mapping binds a host port.
func (m PortMapping) HostBound() bool {
	return m.Host > 0
}

// VolumeMount describes one mount. Named volumes are engine-managed; the
// rest are host-path binds.
type VolumeMount struct {
	Source string
	Target string
	Named  bool
}

// HealthSpec is an optional readiness gate. A nil HealthSpec on a service
// means no health gate at all; within a non-nil spec every field may still
// be left at its zero value.
type HealthSpec struct {
	HTTP     string
	Interval time.Duration
	Timeout  time.Duration
	Retries  int
}

// ServiceSpec is one service's declarative description. Specs are never
// mutated after construction; transforms copy.
type ServiceSpec struct {
	ID        string
	Image     string
	Env       map[string]*string
	Ports     []PortMapping
	Volumes   []VolumeMount
	Health    *HealthSpec
	DependsOn []string
}

// clone returns a deep copy so transforms never alias the original's slices.
func (s ServiceSpec) clone() ServiceSpec {
	out := s
	if s.Env != nil {
		out.Env = make(map[string]*string, len(s.Env))
		for k, v := range s.Env {
			if v != nil {
				val := *v
				out.Env[k] = &val
				continue
			}
			out.Env[k] = nil
		}
	}
	out.Ports = append([]PortMapping(nil), s.Ports...)
	out.Volumes = append([]VolumeMount(nil), s.Volumes...)
	out.DependsOn = append([]string(nil), s.DependsOn...)
	if s.Health != nil {
		health := *s.Health
		out.Health = &health
	}
	return out
}

// Plan is the resolved, ready-to-render description of all services for one
// invocation.
type Plan struct {
	Profile  Profile
	Services []ServiceSpec
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := Plan{Profile: p.Profile}
	out.Services = make([]ServiceSpec, len(p.Services))
	for i, svc := range p.Services {
		out.Services[i] = svc.clone()
	}
	return out
}

// HostPorts returns the distinct host-bound ports declared across the plan,
// in first-seen order.
func (p Plan) HostPorts() []int {
	seen := make(map[int]bool)
	var out []int
	for _, svc := range p.Services {
		for _, pm := range svc.Ports {
			if !pm.HostBound() || seen[pm.Host] {
				continue
			}
			seen[pm.Host] = true
			out = append(out, pm.Host)
		}
	}
	return out
}

// Service returns the spec with the given id, if present.
func (p Plan) Service(id string) (ServiceSpec, bool) {
	for _, svc := range p.Services {
		if svc.ID == id {
			return svc, true
		}
	}
	return ServiceSpec{}, false
}
