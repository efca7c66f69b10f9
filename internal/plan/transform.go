// transform.go holds the pure Plan transforms applied between Build and
// render.

package plan

// ShiftBasePorts returns a new Plan with offset added to every host-bound
// port. Container-only entries (host <= 0) pass through unchanged.
func ShiftBasePorts(p Plan, offset int) Plan {
	if offset == 0 {
		return p.Clone()
	}
	out := p.Clone()
	for i := range out.Services {
		for j, pm := range out.Services[i].Ports {
			if !pm.HostBound() {
				continue
			}
			out.Services[i].Ports[j].Host = pm.Host + offset
		}
	}
	return out
}
