package plan

import "testing"

func TestShiftBasePorts(t *testing.T) {
	p := Plan{Profile: ProfileLocal, Services: []ServiceSpec{
		{ID: "web", Ports: []PortMapping{{Host: 8080, Container: 80}, {Host: 0, Container: 9090}}},
		{ID: "db", Ports: []PortMapping{{Host: 5432, Container: 5432}}},
	}}
	shifted := ShiftBasePorts(p, 100)

	if shifted.Services[0].Ports[0].Host != 8180 {
		t.Fatalf("expected 8180, got %d", shifted.Services[0].Ports[0].Host)
	}
	if shifted.Services[1].Ports[0].Host != 5532 {
		t.Fatalf("expected 5532, got %d", shifted.Services[1].Ports[0].Host)
	}
	// Container-only entries pass through untouched.
	if shifted.Services[0].Ports[1].Host != 0 || shifted.Services[0].Ports[1].Container != 9090 {
		t.Fatalf("container-only mapping changed: %+v", shifted.Services[0].Ports[1])
	}
	// The source plan must not be mutated.
	if p.Services[0].Ports[0].Host != 8080 {
		t.Fatalf("original plan mutated")
	}
}

func TestShiftBasePortsZeroOffsetCopies(t *testing.T) {
	p := Plan{Services: []ServiceSpec{{ID: "a", Ports: []PortMapping{{Host: 80, Container: 80}}}}}
	out := ShiftBasePorts(p, 0)
	out.Services[0].Ports[0].Host = 9999
	if p.Services[0].Ports[0].Host != 80 {
		t.Fatalf("zero-offset shift must still return an independent copy")
	}
}

func TestHostPortsDistinctFirstSeen(t *testing.T) {
	p := Plan{Services: []ServiceSpec{
		{ID: "a", Ports: []PortMapping{{Host: 8080, Container: 80}, {Host: -1, Container: 9000}}},
		{ID: "b", Ports: []PortMapping{{Host: 8080, Container: 80}, {Host: 5432, Container: 5432}}},
	}}
	got := p.HostPorts()
	if len(got) != 2 || got[0] != 8080 || got[1] != 5432 {
		t.Fatalf("unexpected host ports: %v", got)
	}
}
