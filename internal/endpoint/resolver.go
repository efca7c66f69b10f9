// resolver.go maps a service identifier or image name plus a container port
// to a display scheme and URI pattern.

// Package endpoint produces human-readable scheme/URI hints for services
// lacking explicit configuration. Resolution is display-only: it never
// affects execution and never fails the calling command. Known stores
// register themselves explicitly at init; everything else falls back to a
// substring and well-known-port heuristic.
package endpoint

import (
	"strings"
	"sync"
)

// Registration declares the default endpoint for a family of images.
type Registration struct {
	// Prefixes match the start of a service id or image reference.
	Prefixes []string
	// Port is the container port the registration applies to; 0 matches any.
	Port int
	// Scheme is the display scheme, e.g. "postgres".
	Scheme string
	// URIPattern optionally formats a full endpoint hint. The tokens {host}
	// and {port} are substituted by callers.
	URIPattern string
}

var (
	mu       sync.RWMutex
	registry []Registration
)

// Register adds a default-endpoint registration. Providers call this from
// init; later registrations win on ties only by prefix length.
func Register(r Registration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, r)
}

// Resolve returns the scheme and optional URI pattern for a service id or
// image name and its container port. It always returns a scheme; "tcp" is
// the generic default.
func Resolve(nameOrImage string, port int) (scheme string, pattern string) {
	name := strings.ToLower(strings.TrimSpace(nameOrImage))

	mu.RLock()
	var best *Registration
	bestLen := -1
	for i := range registry {
		r := &registry[i]
		if r.Port != 0 && port != 0 && r.Port != port {
			continue
		}
		for _, prefix := range r.Prefixes {
			if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
				best = r
				bestLen = len(prefix)
			}
		}
	}
	mu.RUnlock()
	if best != nil {
		return best.Scheme, best.URIPattern
	}
	return heuristic(name, port)
}

// heuristic covers services no registration claims: recognizable datastore
// name fragments first, then well-known ports, then the generic transport.
func heuristic(name string, port int) (string, string) {
	fragments := []struct {
		substr string
		scheme string
	}{
		{"postgres", "postgres"},
		{"pgvector", "postgres"},
		{"redis", "redis"},
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"mongo", "mongodb"},
		{"rabbitmq", "amqp"},
		{"kafka", "kafka"},
		{"elasticsearch", "http"},
	}
	for _, f := range fragments {
		if strings.Contains(name, f.substr) {
			return f.scheme, ""
		}
	}
	switch port {
	case 80, 8080, 3000, 5000:
		return "http", ""
	case 443, 8443:
		return "https", ""
	case 5432:
		return "postgres", ""
	case 6379:
		return "redis", ""
	case 3306:
		return "mysql", ""
	case 27017:
		return "mongodb", ""
	case 5672:
		return "amqp", ""
	}
	return "tcp", ""
}
