// descriptor.go parses project descriptor files (JSON or a restricted YAML
// subset) into the loose intermediate model that Build normalizes.

package plan

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Format names a descriptor encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// DescriptorModel mirrors ServiceSpec fields as loosely-typed strings prior
// to normalization. It exists only during parse-to-Plan translation.
type DescriptorModel struct {
	Services []DescriptorService `json:"services"`
}

// DescriptorService is one service entry as written in the descriptor.
type DescriptorService struct {
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	Ports     []string          `json:"ports"`
	Volumes   []string          `json:"volumes"`
	Env       map[string]string `json:"env"`
	DependsOn []string          `json:"dependsOn"`
	Health    DescriptorHealth  `json:"health"`
}

// DescriptorHealth is the nested health block; dotted YAML keys land here.
type DescriptorHealth struct {
	HTTP            string `json:"http"`
	IntervalSeconds int    `json:"intervalSeconds"`
	TimeoutSeconds  int    `json:"timeoutSeconds"`
	Retries         int    `json:"retries"`
}

func (h DescriptorHealth) empty() bool {
	return h.HTTP == "" && h.IntervalSeconds == 0 && h.TimeoutSeconds == 0 && h.Retries == 0
}

// ParseDescriptor reads raw descriptor content. The ok result is false for
// any parse trouble; callers fall through to the next precedence source
// instead of failing the planning flow.
func ParseDescriptor(content []byte, format Format) (*DescriptorModel, bool) {
	switch format {
	case FormatJSON:
		var model DescriptorModel
		if err := json.Unmarshal(content, &model); err != nil {
			return nil, false
		}
		if len(model.Services) == 0 {
			return nil, false
		}
		return &model, true
	case FormatYAML:
		return parseYAMLSubset(string(content))
	}
	return nil, false
}

// parseYAMLSubset is a deliberately minimal line-oriented reader for the
// descriptor grammar: a top-level `services:` list whose items start with
// `- ` at a fixed indent, nested `key: value` pairs at a deeper indent,
// inline lists, single-line block-list items, one level of inline mapping,
// and dotted health keys. Unknown keys are ignored.
func parseYAMLSubset(content string) (*DescriptorModel, bool) {
	model := &DescriptorModel{}
	inServices := false
	itemIndent := -1
	var current *DescriptorService
	var blockListKey string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))

		if indent == 0 {
			inServices = trimmed == "services:"
			current = nil
			blockListKey = ""
			continue
		}
		if !inServices {
			continue
		}

		if strings.HasPrefix(trimmed, "- ") {
			rest := strings.TrimSpace(trimmed[2:])
			if itemIndent < 0 {
				itemIndent = indent
			}
			if indent == itemIndent {
				model.Services = append(model.Services, DescriptorService{})
				current = &model.Services[len(model.Services)-1]
				blockListKey = ""
				if rest != "" {
					applyDescriptorKey(current, rest, &blockListKey)
				}
				continue
			}
			// Deeper-indented dash: single-line block-list item for the
			// last list-valued key.
			if current != nil && blockListKey != "" {
				appendListValue(current, blockListKey, unquote(rest))
			}
			continue
		}

		if current == nil {
			continue
		}
		blockListKey = ""
		applyDescriptorKey(current, trimmed, &blockListKey)
	}

	if len(model.Services) == 0 {
		return nil, false
	}
	return model, true
}

func applyDescriptorKey(svc *DescriptorService, pair string, blockListKey *string) {
	key, value, ok := strings.Cut(pair, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "name":
		svc.Name = unquote(value)
	case "image":
		svc.Image = unquote(value)
	case "ports":
		if value == "" {
			*blockListKey = key
			return
		}
		svc.Ports = append(svc.Ports, parseInlineList(value)...)
	case "volumes":
		if value == "" {
			*blockListKey = key
			return
		}
		svc.Volumes = append(svc.Volumes, parseInlineList(value)...)
	case "dependsOn", "depends_on":
		if value == "" {
			*blockListKey = "dependsOn"
			return
		}
		svc.DependsOn = append(svc.DependsOn, parseInlineList(value)...)
	case "env", "environment":
		if mapping, ok := parseInlineMapping(value); ok {
			if svc.Env == nil {
				svc.Env = map[string]string{}
			}
			for k, v := range mapping {
				svc.Env[k] = v
			}
		}
	case "health.http":
		svc.Health.HTTP = unquote(value)
	case "health.intervalSeconds":
		svc.Health.IntervalSeconds = atoiOrZero(value)
	case "health.timeoutSeconds":
		svc.Health.TimeoutSeconds = atoiOrZero(value)
	case "health.retries":
		svc.Health.Retries = atoiOrZero(value)
	}
}

func appendListValue(svc *DescriptorService, key, value string) {
	switch key {
	case "ports":
		svc.Ports = append(svc.Ports, value)
	case "volumes":
		svc.Volumes = append(svc.Volumes, value)
	case "dependsOn":
		svc.DependsOn = append(svc.DependsOn, value)
	}
}

// parseInlineList reads `["a", "b"]` or a bare scalar as a one-item list.
func parseInlineList(value string) []string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "[") {
		if value == "" {
			return nil
		}
		return []string{unquote(value)}
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	var out []string
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, unquote(part))
	}
	return out
}

// parseInlineMapping reads one level of `{ KEY: "VALUE", ... }`.
func parseInlineMapping(value string) (map[string]string, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "{") || !strings.HasSuffix(value, "}") {
		return nil, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "{"), "}")
	out := map[string]string{}
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(unquote(k))] = strings.TrimSpace(unquote(strings.TrimSpace(v)))
	}
	return out, true
}

func unquote(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func atoiOrZero(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(unquote(value)))
	if err != nil {
		return 0
	}
	return n
}

// ParsePortString reads "80" as host=container=80 and "8080:80" as
// host=8080, container=80. Anything else is unparseable and dropped.
func ParsePortString(value string) (PortMapping, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return PortMapping{}, false
	}
	host, container, ok := strings.Cut(value, ":")
	if !ok {
		port, err := strconv.Atoi(value)
		if err != nil {
			return PortMapping{}, false
		}
		return PortMapping{Host: port, Container: port}, true
	}
	h, err := strconv.Atoi(strings.TrimSpace(host))
	if err != nil {
		return PortMapping{}, false
	}
	c, err := strconv.Atoi(strings.TrimSpace(container))
	if err != nil {
		return PortMapping{}, false
	}
	return PortMapping{Host: h, Container: c}, true
}

// ParseVolumeString reads "source:target". A source is a named volume when
// it is not path-like: no leading '.' or '/', no path separator anywhere.
func ParseVolumeString(value string) (VolumeMount, bool) {
	source, target, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || source == "" || target == "" {
		return VolumeMount{}, false
	}
	named := !strings.HasPrefix(source, ".") && !strings.HasPrefix(source, "/") &&
		!strings.ContainsAny(source, `/\`)
	return VolumeMount{Source: source, Target: target, Named: named}, true
}

// normalize converts the loose descriptor model into service specs,
// silently dropping unparseable port and volume strings.
func (m *DescriptorModel) normalize() []ServiceSpec {
	specs := make([]ServiceSpec, 0, len(m.Services))
	for i, d := range m.Services {
		spec := ServiceSpec{
			ID:        d.Name,
			Image:     d.Image,
			DependsOn: append([]string(nil), d.DependsOn...),
		}
		if spec.ID == "" {
			spec.ID = "service-" + strconv.Itoa(i+1)
		}
		for _, p := range d.Ports {
			if pm, ok := ParsePortString(p); ok {
				spec.Ports = append(spec.Ports, pm)
			}
		}
		for _, v := range d.Volumes {
			if vm, ok := ParseVolumeString(v); ok {
				spec.Volumes = append(spec.Volumes, vm)
			}
		}
		if len(d.Env) > 0 {
			spec.Env = make(map[string]*string, len(d.Env))
			for k, v := range d.Env {
				val := v
				spec.Env[k] = &val
			}
		}
		if !d.Health.empty() {
			spec.Health = &HealthSpec{
				HTTP:     d.Health.HTTP,
				Interval: time.Duration(d.Health.IntervalSeconds) * time.Second,
				Timeout:  time.Duration(d.Health.TimeoutSeconds) * time.Second,
				Retries:  d.Health.Retries,
			}
		}
		specs = append(specs, spec)
	}
	return specs
}
