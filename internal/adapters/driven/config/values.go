// Package config holds what the ConfigStore adapters share: coercion of
// decoded values into the types the typed getters promise.
package config

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int accepts int, the int64 TOML decodes to and the float64 JSON decodes
// to. Fractions are truncated.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Strings returns a copy of a []string, or the string elements of a
// decoded []any. Anything else is nil.
func Strings(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
