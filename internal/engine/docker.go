// docker.go provides the Docker engine, resolving endpoint and context
// metadata from the Docker CLI configuration.

package engine

import (
	"context"
	"io"
	"os"

	cliconfig "github.com/docker/cli/cli/config"
)

const defaultDockerSocket = "unix:///var/run/docker.sock"

func init() {
	Register("docker", func() Provider { return newDockerProvider() })
}

type dockerProvider struct {
	composeCLI
}

func newDockerProvider() *dockerProvider {
	return &dockerProvider{composeCLI{id: "docker", bin: "docker"}}
}

func (d *dockerProvider) EngineInfo(ctx context.Context) (Info, error) {
	version, err := d.version(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:     "docker",
		Version:  version,
		Endpoint: dockerEndpoint(),
	}, nil
}

// dockerEndpoint prefers DOCKER_HOST, then the current CLI context name,
// then the default socket.
func dockerEndpoint() string {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return host
	}
	cfg := cliconfig.LoadDefaultConfigFile(io.Discard)
	if cfg != nil && cfg.CurrentContext != "" && cfg.CurrentContext != "default" {
		return "context:" + cfg.CurrentContext
	}
	return defaultDockerSocket
}
