// Package redact masks credential material before entities reach any
// human-facing output. Certificates carry private keys and consumers
// carry credentials; neither belongs in a diff printout or a log line.
package redact

import (
	"regexp"
	"strings"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

const Placeholder = "[REDACTED]"

// sensitiveFields are masked by name wherever they appear in an entity.
var sensitiveFields = map[string]bool{
	"key":           true,
	"password":      true,
	"client_secret": true,
	"secret":        true,
	"token":         true,
	"private_key":   true,
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`[a-zA-Z]+://[^/\s:@]+:[^/\s:@]+@\S+`),
}

// Entity returns a copy with credential fields and embedded secrets
// masked. The input is never modified.
func Entity(entity gateway.Entity) gateway.Entity {
	if entity == nil {
		return nil
	}
	return gateway.Entity(maskMap(entity))
}

// Value masks a single value the way Entity masks whole entities; used
// for field-change output where only the leaf is printed.
func Value(v interface{}) interface{} {
	return maskValue(v)
}

// Field masks a leaf value addressed by a dot path, honoring the field
// name of the final segment.
func Field(path string, v interface{}) interface{} {
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if sensitiveFields[path] && v != nil {
		return Placeholder
	}
	return maskValue(v)
}

func maskMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if sensitiveFields[k] && v != nil {
			out[k] = Placeholder
			continue
		}
		out[k] = maskValue(v)
	}
	return out
}

func maskValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case string:
		return maskString(tv)
	case map[string]interface{}:
		return maskMap(tv)
	case gateway.Entity:
		return maskMap(tv)
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, item := range tv {
			out[i] = maskValue(item)
		}
		return out
	default:
		return v
	}
}

func maskString(s string) string {
	masked := s
	for _, pattern := range sensitivePatterns {
		masked = pattern.ReplaceAllString(masked, Placeholder)
	}
	return masked
}
