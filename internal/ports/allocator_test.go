package ports

import (
	"errors"
	"net"
	"testing"

	"github.com/example/dockhand/internal/plan"
)

func servicePlan(specs ...plan.ServiceSpec) plan.Plan {
	return plan.Plan{Profile: plan.ProfileLocal, Services: specs}
}

func allFree(int) bool { return true }

func TestAutoAvoidIntraPlanUniqueness(t *testing.T) {
	// Three services all want 9000; the network says every port is free,
	// so uniqueness must come from the working set alone.
	p := servicePlan(
		plan.ServiceSpec{ID: "a", Ports: []plan.PortMapping{{Host: 9000, Container: 80}}},
		plan.ServiceSpec{ID: "b", Ports: []plan.PortMapping{{Host: 9000, Container: 80}}},
		plan.ServiceSpec{ID: "c", Ports: []plan.PortMapping{{Host: 9000, Container: 80}}},
	)
	out, err := AutoAvoidPorts(p, Options{Probe: allFree})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	seen := map[int]string{}
	for _, svc := range out.Services {
		host := svc.Ports[0].Host
		if host < 9000 {
			t.Fatalf("service %s assigned %d below the declared port", svc.ID, host)
		}
		if prev, dup := seen[host]; dup {
			t.Fatalf("services %s and %s share port %d", prev, svc.ID, host)
		}
		seen[host] = svc.ID
	}
}

func TestAutoAvoidContainerOnlyPassthrough(t *testing.T) {
	p := servicePlan(plan.ServiceSpec{ID: "a", Ports: []plan.PortMapping{
		{Host: -1, Container: 9090},
		{Host: 0, Container: 9091},
		{Host: 8080, Container: 80},
	}})
	out, err := AutoAvoidPorts(p, Options{Probe: allFree})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	got := out.Services[0].Ports
	if got[0].Host != -1 || got[1].Host != 0 {
		t.Fatalf("container-only mappings must pass through, got %+v", got)
	}
	if got[2].Host != 8080 {
		t.Fatalf("free declared port should stay, got %d", got[2].Host)
	}
}

func TestAutoAvoidSkipsOccupiedPorts(t *testing.T) {
	occupied := map[int]bool{5432: true, 5433: true}
	probe := func(port int) bool { return !occupied[port] }
	p := servicePlan(plan.ServiceSpec{ID: "db", Ports: []plan.PortMapping{{Host: 5432, Container: 5432}}})

	out, err := AutoAvoidPorts(p, Options{Probe: probe})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := out.Services[0].Ports[0].Host; got != 5434 {
		t.Fatalf("expected first free port 5434, got %d", got)
	}
}

func TestAutoAvoidGuardLimitTerminates(t *testing.T) {
	neverFree := func(int) bool { return false }
	p := servicePlan(plan.ServiceSpec{ID: "stuck", Ports: []plan.PortMapping{{Host: 7000, Container: 7000}}})

	_, err := AutoAvoidPorts(p, Options{Probe: neverFree, GuardLimit: 25})
	if err == nil {
		t.Fatalf("expected guard-limit error")
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Service != "stuck" || exhausted.Start != 7000 || exhausted.Limit != 25 {
		t.Fatalf("error details mismatch: %+v", exhausted)
	}
}

func TestAutoAvoidTwoServicesWantPostgresPort(t *testing.T) {
	// End-to-end allocation example: both services declare 5432 and the
	// network already holds 5432.
	probe := func(port int) bool { return port != 5432 }
	p := servicePlan(
		plan.ServiceSpec{ID: "primary", Ports: []plan.PortMapping{{Host: 5432, Container: 5432}}},
		plan.ServiceSpec{ID: "replica", Ports: []plan.PortMapping{{Host: 5432, Container: 5432}}},
	)
	out, err := AutoAvoidPorts(p, Options{Probe: probe})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	a := out.Services[0].Ports[0].Host
	b := out.Services[1].Ports[0].Host
	if a != 5433 {
		t.Fatalf("primary should land on 5433, got %d", a)
	}
	if b != 5434 {
		t.Fatalf("replica should land on the next free port 5434, got %d", b)
	}
}

func TestAutoAvoidPrefersPriorAllocation(t *testing.T) {
	p := servicePlan(plan.ServiceSpec{ID: "db", Ports: []plan.PortMapping{{Host: 5432, Container: 5432}}})
	out, err := AutoAvoidPorts(p, Options{Probe: allFree, Preferred: map[string]int{"db": 5440}})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := out.Services[0].Ports[0].Host; got != 5440 {
		t.Fatalf("expected prior allocation 5440 to stick, got %d", got)
	}
}

func TestAutoAvoidPreferredSkipsContainerOnlyMappings(t *testing.T) {
	p := servicePlan(plan.ServiceSpec{ID: "db", Ports: []plan.PortMapping{
		{Host: 0, Container: 9090},
		{Host: 5432, Container: 5432},
	}})
	out, err := AutoAvoidPorts(p, Options{Probe: allFree, Preferred: map[string]int{"db": 5433}})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := out.Services[0].Ports[0].Host; got > 0 {
		t.Fatalf("container-only mapping should stay unbound, got host %d", got)
	}
	if got := out.Services[0].Ports[1].Host; got != 5433 {
		t.Fatalf("prior allocation 5433 should stick to the first host-bound mapping, got %d", got)
	}
}

func TestAutoAvoidIgnoresUnusablePreferred(t *testing.T) {
	probe := func(port int) bool { return port != 5440 }
	p := servicePlan(plan.ServiceSpec{ID: "db", Ports: []plan.PortMapping{{Host: 5432, Container: 5432}}})
	out, err := AutoAvoidPorts(p, Options{Probe: probe, Preferred: map[string]int{"db": 5440}})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := out.Services[0].Ports[0].Host; got != 5432 {
		t.Fatalf("occupied preferred port should fall back to declared scan, got %d", got)
	}
}

func TestAutoAvoidDoesNotMutateInput(t *testing.T) {
	probe := func(port int) bool { return port != 8080 }
	p := servicePlan(plan.ServiceSpec{ID: "web", Ports: []plan.PortMapping{{Host: 8080, Container: 80}}})
	if _, err := AutoAvoidPorts(p, Options{Probe: probe}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if p.Services[0].Ports[0].Host != 8080 {
		t.Fatalf("input plan mutated")
	}
}

func TestFindConflictingPorts(t *testing.T) {
	busy := map[int]bool{80: true, 5432: true}
	probe := func(port int) bool { return !busy[port] }
	got := FindConflictingPorts([]int{8080, 80, 5432, 80, 0, -5}, probe)
	if len(got) != 2 || got[0] != 80 || got[1] != 5432 {
		t.Fatalf("unexpected conflicts: %v", got)
	}
}

func TestNetworkProbeRoundTrip(t *testing.T) {
	// A port we are currently listening on must report unavailable.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback listen unavailable: %v", err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port
	if NetworkProbe(port) {
		t.Fatalf("port %d is held by the test listener but probed free", port)
	}
	l.Close()
	if !NetworkProbe(port) {
		t.Fatalf("port %d released but still probed busy", port)
	}
}
