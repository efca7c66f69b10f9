// podman.go provides the Podman engine.

package engine

import (
	"context"
	"fmt"
	"os"
)

func init() {
	Register("podman", func() Provider { return newPodmanProvider() })
}

type podmanProvider struct {
	composeCLI
}

func newPodmanProvider() *podmanProvider {
	return &podmanProvider{composeCLI{id: "podman", bin: "podman"}}
}

func (p *podmanProvider) EngineInfo(ctx context.Context) (Info, error) {
	version, err := p.version(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:     "podman",
		Version:  version,
		Endpoint: podmanEndpoint(),
	}, nil
}

// podmanEndpoint prefers CONTAINER_HOST, then the per-user socket.
func podmanEndpoint() string {
	if host := os.Getenv("CONTAINER_HOST"); host != "" {
		return host
	}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return fmt.Sprintf("unix://%s/podman/podman.sock", runtimeDir)
	}
	return "unix:///run/podman/podman.sock"
}
