package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseScalar converts a command-line token into a bool, int64, float64 or
// string, in that order of preference. "null" and "nil" yield nil.
func ParseScalar(s string) any {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "nil":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ParseKeyValues parses "key=value" pairs into a map, converting values with
// ParseScalar.
func ParseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		out[k] = ParseScalar(v)
	}
	return out, nil
}
