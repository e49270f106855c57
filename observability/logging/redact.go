package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces masked values.
const RedactedValue = "[REDACTED]"

// Keys emitted verbatim. Everything else passed through MaskField is masked:
// tokens, DSNs, webhook secrets.
var plainKeys = map[string]struct{}{
	"component": {},
	"driver":    {},
	"endpoint":  {},
	"env":       {},
	"error":     {},
	"event":     {},
	"method":    {},
	"module":    {},
	"op":        {},
	"reason":    {},
	"requestid": {},
	"service":   {},
}

// IsAllowlisted reports whether key is logged without masking. Matching
// ignores case.
func IsAllowlisted(key string) bool {
	_, ok := plainKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// RedactionAllowlist lists the unmasked keys in sorted order.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(plainKeys))
	for key := range plainKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskValue hides a non-empty value.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField builds a string attr, masking the value unless key is allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}
