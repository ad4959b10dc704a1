package main

import (
	"strconv"
	"strings"
)

// parseValue reads a command-line value. Numbers, booleans, nil and quoted
// strings are literals; any other text is taken as a plain string.
func parseValue(s string) any {
	switch s {
	case "nil":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// ParseFloat also accepts words like "inf" and "nan"
	if strings.ContainsAny(s, "0123456789") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

func parseValues(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = parseValue(s)
	}
	return out
}
