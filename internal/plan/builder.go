// builder.go resolves a Plan from the three precedence sources: descriptor
// file, environment-driven provider shortcut, then the built-in fallback.

package plan

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DescriptorCandidates are probed in order in the project root; the first
// existing, parseable file wins.
var DescriptorCandidates = []string{
	"dockhand.json",
	"dockhand.yaml",
	"dockhand.yml",
	"services.yaml",
	"services.json",
}

// EnvProvider selects the data-provider shortcut when no descriptor exists.
const EnvProvider = "DOCKHAND_PROVIDER"

// EnvProviderPassword overrides the placeholder credential baked into
// provider shortcut plans.
const EnvProviderPassword = "DOCKHAND_PROVIDER_PASSWORD"

const placeholderPassword = "dockhand-dev"

// Builder resolves plans for one project root. The zero value uses the
// current directory and the process environment.
type Builder struct {
	Root string
	// Lookup resolves environment values; nil means os.Getenv. Injectable
	// so precedence tests control the shortcut source.
	Lookup func(string) string
}

func (b *Builder) root() string {
	if b.Root == "" {
		return "."
	}
	return b.Root
}

func (b *Builder) lookup(key string) string {
	if b.Lookup != nil {
		return b.Lookup(key)
	}
	return os.Getenv(key)
}

// Build resolves a Plan. It never fails: descriptor read or parse errors
// fall through to the environment shortcut, and the fallback demo plan
// guarantees every command path has something to operate on.
func (b *Builder) Build(profile Profile) Plan {
	if services, ok := b.fromDescriptor(); ok {
		return Plan{Profile: profile, Services: services}
	}
	if services, ok := b.fromEnvShortcut(); ok {
		return Plan{Profile: profile, Services: services}
	}
	return Plan{Profile: profile, Services: fallbackServices()}
}

// DetectDescriptor reports the first descriptor candidate present in the
// project root, whether or not it parses.
func (b *Builder) DetectDescriptor() (string, bool) {
	for _, name := range DescriptorCandidates {
		path := filepath.Join(b.root(), name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (b *Builder) fromDescriptor() ([]ServiceSpec, bool) {
	for _, name := range DescriptorCandidates {
		path := filepath.Join(b.root(), name)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		format := FormatYAML
		if strings.HasSuffix(name, ".json") {
			format = FormatJSON
		}
		model, ok := ParseDescriptor(content, format)
		if !ok {
			continue
		}
		if services := model.normalize(); len(services) > 0 {
			return services, true
		}
	}
	return nil, false
}

// providerDefault describes the single-service plan synthesized for a
// recognized backing-store keyword.
type providerDefault struct {
	image     string
	port      int
	volume    string
	passwdKey string
	extraEnv  map[string]string
}

var providerDefaults = map[string]providerDefault{
	"postgres": {
		image:     "postgres:16-alpine",
		port:      5432,
		volume:    "pgdata:/var/lib/postgresql/data",
		passwdKey: "POSTGRES_PASSWORD",
		extraEnv:  map[string]string{"POSTGRES_DB": "app"},
	},
	"redis": {
		image:  "redis:7-alpine",
		port:   6379,
		volume: "redisdata:/data",
	},
	"mysql": {
		image:     "mysql:8.4",
		port:      3306,
		volume:    "mysqldata:/var/lib/mysql",
		passwdKey: "MYSQL_ROOT_PASSWORD",
		extraEnv:  map[string]string{"MYSQL_DATABASE": "app"},
	},
	"mongo": {
		image:     "mongo:7",
		port:      27017,
		volume:    "mongodata:/data/db",
		passwdKey: "MONGO_INITDB_ROOT_PASSWORD",
		extraEnv:  map[string]string{"MONGO_INITDB_ROOT_USERNAME": "root"},
	},
}

func (b *Builder) fromEnvShortcut() ([]ServiceSpec, bool) {
	keyword := strings.ToLower(strings.TrimSpace(b.lookup(EnvProvider)))
	def, ok := providerDefaults[keyword]
	if !ok {
		return nil, false
	}

	spec := ServiceSpec{
		ID:    keyword,
		Image: def.image,
		Ports: []PortMapping{{Host: def.port, Container: def.port}},
		Health: &HealthSpec{
			Interval: 5 * time.Second,
			Timeout:  3 * time.Second,
			Retries:  12,
		},
	}
	if vm, ok := ParseVolumeString(def.volume); ok {
		spec.Volumes = []VolumeMount{vm}
	}
	env := map[string]*string{}
	if def.passwdKey != "" {
		password := b.lookup(EnvProviderPassword)
		if password == "" {
			password = placeholderPassword
		}
		env[def.passwdKey] = &password
	}
	for k, v := range def.extraEnv {
		val := v
		env[k] = &val
	}
	if len(env) > 0 {
		spec.Env = env
	}
	return []ServiceSpec{spec}, true
}

// fallbackServices is the hard-coded demo plan used when nothing else
// resolves, so dry-run and explain flows always have a subject.
func fallbackServices() []ServiceSpec {
	return []ServiceSpec{{
		ID:    "demo",
		Image: "nginx:1.27-alpine",
		Ports: []PortMapping{{Host: 8080, Container: 80}},
		Health: &HealthSpec{
			HTTP:     "http://localhost:80/",
			Interval: 5 * time.Second,
			Timeout:  2 * time.Second,
			Retries:  10,
		},
	}}
}
