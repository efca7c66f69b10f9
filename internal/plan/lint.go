// lint.go flags plan declarations that tend to bite later: floating image
// tags and placeholder credentials.

package plan

import (
	"fmt"
	"regexp"
	"strings"
)

var sha256DigestRE = regexp.MustCompile(`@sha256:[a-f0-9]{64}$`)

// Lint returns human-readable warnings for the plan. The plan is still
// valid; these are advisories, not errors.
func Lint(p Plan) []string {
	var warnings []string
	for _, svc := range p.Services {
		if w, ok := floatingTag(svc.Image); ok {
			warnings = append(warnings, fmt.Sprintf("service %s: %s", svc.ID, w))
		}
		if p.Profile != ProfileLocal {
			for key, value := range svc.Env {
				if value != nil && *value == placeholderPassword {
					warnings = append(warnings, fmt.Sprintf("service %s: %s uses the built-in development password under profile %s", svc.ID, key, p.Profile))
				}
			}
		}
	}
	return warnings
}

// floatingTag reports whether the image reference can drift between pulls.
// Digest-pinned references never drift; untagged and :latest ones do.
func floatingTag(image string) (string, bool) {
	ref := strings.TrimSpace(image)
	if ref == "" || strings.EqualFold(ref, "scratch") {
		return "", false
	}
	if sha256DigestRE.MatchString(ref) {
		return "", false
	}
	// A colon after the last slash is a tag; earlier colons belong to a
	// registry host:port.
	tail := ref
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		tail = ref[idx+1:]
	}
	colon := strings.LastIndex(tail, ":")
	switch {
	case colon < 0:
		return fmt.Sprintf("image %s has no tag and resolves to latest", ref), true
	case tail[colon+1:] == "latest":
		return fmt.Sprintf("image %s uses the floating latest tag", ref), true
	}
	return "", false
}
