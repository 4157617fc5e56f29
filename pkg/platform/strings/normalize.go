// Package strings normalizes free-form string lists from config and payloads.
package strings

import "strings"

// Compact trims each value and drops blanks and repeats, keeping first-seen
// order. A nil input stays nil.
func Compact(values []string) []string {
	return compact(values, strings.TrimSpace)
}

// NormalizeKeys is Compact with lowercasing, for identifiers matched
// case-insensitively such as task and section names.
func NormalizeKeys(values []string) []string {
	return compact(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

func compact(values []string, norm func(string) string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = norm(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
