package expr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LookupFunc resolves an identifier to a value. Implementations typically
// close over a scope chain; returning false means the name is unbound.
type LookupFunc func(name string) (any, bool)

// Resolve resolves a source fragment to a value: quoted strings, booleans,
// null, and numbers are literals, anything else is looked up as an
// identifier. An unbound identifier resolves to its own text, so bare words
// behave as string literals.
func Resolve(s string, lookup LookupFunc) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Quoted string (single or double quotes).
	if (strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) ||
		(strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"")) {
		if len(s) < 2 {
			return ""
		}
		return s[1 : len(s)-1]
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}

	// Number (json.Number gives precise parsing).
	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	if lookup != nil {
		if val, ok := lookup(s); ok {
			return val
		}
	}

	return s
}

// IsLiteral reports whether the fragment resolves without consulting the
// lookup: quoted strings, booleans, null, and numbers.
func IsLiteral(s string) bool {
	resolved := false
	Resolve(s, func(string) (any, bool) {
		resolved = true
		return nil, false
	})
	return !resolved
}

// IsTruthy returns whether a value is truthy. nil is false, bools return
// their value, empty strings are false, zero numbers are false, everything
// else is true.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case int32:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	default:
		return true
	}
}

// ToFloat64 converts a value to float64 for numeric comparison.
// Returns 0 for values that cannot be converted.
func ToFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case string:
		var f float64
		_, _ = fmt.Sscanf(val, "%f", &f)
		return f
	default:
		return 0
	}
}
