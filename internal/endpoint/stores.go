// stores.go registers the default endpoints for the backing stores dockhand
// can synthesize or commonly encounters in descriptors.

package endpoint

func init() {
	Register(Registration{
		Prefixes:   []string{"postgres", "pgvector", "timescale"},
		Port:       5432,
		Scheme:     "postgres",
		URIPattern: "postgres://{host}:{port}/app",
	})
	Register(Registration{
		Prefixes:   []string{"redis", "valkey"},
		Port:       6379,
		Scheme:     "redis",
		URIPattern: "redis://{host}:{port}",
	})
	Register(Registration{
		Prefixes:   []string{"mysql", "mariadb", "percona"},
		Port:       3306,
		Scheme:     "mysql",
		URIPattern: "mysql://{host}:{port}/app",
	})
	Register(Registration{
		Prefixes:   []string{"mongo"},
		Port:       27017,
		Scheme:     "mongodb",
		URIPattern: "mongodb://{host}:{port}",
	})
	Register(Registration{
		Prefixes:   []string{"rabbitmq"},
		Port:       5672,
		Scheme:     "amqp",
		URIPattern: "amqp://{host}:{port}",
	})
	Register(Registration{
		Prefixes: []string{"nginx", "traefik", "caddy", "haproxy"},
		Scheme:   "http",
	})
}
