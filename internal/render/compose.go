// compose.go renders a resolved Plan as a compose artifact. The Plan is the
// sole input contract; whatever engine later consumes the file sees only
// standard compose syntax.

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/example/dockhand/internal/plan"
)

// Project converts a Plan into a compose-go project model.
func Project(name string, p plan.Plan) *composetypes.Project {
	project := &composetypes.Project{
		Name:     name,
		Services: composetypes.Services{},
		Volumes:  composetypes.Volumes{},
	}
	for _, svc := range p.Services {
		cfg := composetypes.ServiceConfig{
			Name:        svc.ID,
			Image:       svc.Image,
			Environment: composetypes.MappingWithEquals(svc.Env),
		}
		for _, pm := range svc.Ports {
			port := composetypes.ServicePortConfig{
				Target:   uint32(pm.Container),
				Protocol: "tcp",
			}
			if pm.HostBound() {
				port.Published = strconv.Itoa(pm.Host)
			}
			cfg.Ports = append(cfg.Ports, port)
		}
		for _, vm := range svc.Volumes {
			volumeType := composetypes.VolumeTypeBind
			if vm.Named {
				volumeType = composetypes.VolumeTypeVolume
				project.Volumes[vm.Source] = composetypes.VolumeConfig{}
			}
			cfg.Volumes = append(cfg.Volumes, composetypes.ServiceVolumeConfig{
				Type:   volumeType,
				Source: vm.Source,
				Target: vm.Target,
			})
		}
		if svc.Health != nil && svc.Health.HTTP != "" {
			interval := composetypes.Duration(svc.Health.Interval)
			timeout := composetypes.Duration(svc.Health.Timeout)
			retries := uint64(svc.Health.Retries)
			cfg.HealthCheck = &composetypes.HealthCheckConfig{
				Test:     composetypes.HealthCheckTest{"CMD-SHELL", fmt.Sprintf("curl -fsS %s || exit 1", svc.Health.HTTP)},
				Interval: &interval,
				Timeout:  &timeout,
				Retries:  &retries,
			}
		}
		if len(svc.DependsOn) > 0 {
			cfg.DependsOn = composetypes.DependsOnConfig{}
			for _, dep := range svc.DependsOn {
				condition := composetypes.ServiceConditionStarted
				if depSpec, ok := p.Service(dep); ok && depSpec.Health != nil && depSpec.Health.HTTP != "" {
					condition = composetypes.ServiceConditionHealthy
				}
				cfg.DependsOn[dep] = composetypes.ServiceDependency{Condition: condition, Required: true}
			}
		}
		project.Services[svc.ID] = cfg
	}
	if len(project.Volumes) == 0 {
		project.Volumes = nil
	}
	return project
}

// Write renders the Plan to path, creating parent directories as needed.
// Output is deterministic for a given Plan so manifest change detection can
// compare bytes.
func Write(name string, p plan.Plan, path string) error {
	project := Project(name, p)
	content, err := project.MarshalYAML()
	if err != nil {
		return fmt.Errorf("marshal compose project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write compose artifact: %w", err)
	}
	return nil
}
