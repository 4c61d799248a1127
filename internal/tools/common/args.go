package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StringOrArray reads an argument given either as one string or as an
// array of strings. A missing argument returns nil without error.
func StringOrArray(args map[string]any, name string) ([]string, error) {
	param, ok := args[name]
	if !ok || param == nil {
		return nil, nil
	}

	switch v := param.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			if strings.TrimSpace(str) == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", name, i)
			}
			out = append(out, str)
		}
		return out, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}
}

// OptionalString returns the string argument or def when absent or empty.
func OptionalString(args map[string]any, name, def string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return def
}

// OptionalBool returns the boolean argument or def when absent.
func OptionalBool(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// OptionalInt returns a numeric argument as int. JSON numbers arrive as
// float64.
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return def, nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// JSONResult marshals v as indented JSON into a text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
