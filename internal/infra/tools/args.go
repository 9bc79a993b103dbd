package tools

import (
	"fmt"
	"net/url"
	"strconv"
)

// The dispatcher validates and coerces arguments before any handler
// runs, so these helpers only unpack already-typed values.

func argString(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	return v, ok && v != ""
}

func argInt(args map[string]any, name string) (int, bool) {
	v, ok := args[name].(int)
	return v, ok
}

func argBool(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

func argStringSlice(args map[string]any, name string) []string {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argIntSlice(args map[string]any, name string) []int {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case int:
			out = append(out, v)
		case float64:
			out = append(out, int(v))
		}
	}
	return out
}

func argObject(args map[string]any, name string) map[string]any {
	v, _ := args[name].(map[string]any)
	return v
}

func setString(query url.Values, key string, args map[string]any, name string) {
	if v, ok := argString(args, name); ok {
		query.Set(key, v)
	}
}

func setInt(query url.Values, key string, args map[string]any, name string) {
	if v, ok := argInt(args, name); ok {
		query.Set(key, strconv.Itoa(v))
	}
}

func setBool(query url.Values, key string, args map[string]any, name string) {
	if _, present := args[name]; present {
		query.Set(key, fmt.Sprintf("%t", argBool(args, name)))
	}
}

func itoa(v int) string { return strconv.Itoa(v) }
