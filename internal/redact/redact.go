// redact.go masks credential-looking values before they reach human-readable
// output. JSON output modes bypass this; machine consumers are trusted.

package redact

import (
	"regexp"
	"strings"
)

var suspiciousKeyRE = regexp.MustCompile(`(?i)(token|secret|password|passwd|api[_-]?key|auth|private[_-]?key|credential|access[_-]?key)`)

// SuspiciousKey reports whether an environment key looks like it carries a
// credential.
func SuspiciousKey(key string) bool {
	upper := strings.ToUpper(key)
	return suspiciousKeyRE.MatchString(key) ||
		strings.HasSuffix(upper, "_TOKEN") ||
		strings.HasSuffix(upper, "_SECRET") ||
		strings.HasSuffix(upper, "_PASSWORD")
}

// Value masks a secret value, keeping a short prefix and suffix of longer
// values so operators can still match them against a known credential.
func Value(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "REDACTED"
	}
	return v[:3] + "..." + v[len(v)-3:]
}

// EnvValue masks value only when key looks credential-bearing.
func EnvValue(key, value string) string {
	if SuspiciousKey(key) {
		return Value(value)
	}
	return value
}
