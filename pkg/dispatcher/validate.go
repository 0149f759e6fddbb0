package dispatcher

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/morezero/statsig-mcp/pkg/registry"
)

// validate checks args against d's parameters and returns the normalized
// set: declared fields only, defaults applied, numbers as float64 and
// integers as int64. A JSON null counts as absent.
func validate(d registry.Descriptor, args map[string]any) (registry.Args, error) {
	out := make(registry.Args, len(d.Params))
	for _, p := range d.Params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, invalid(d, p, "is required")
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}

		norm, reason := coerce(p, v)
		if reason != "" {
			return nil, invalid(d, p, reason)
		}
		out[p.Name] = norm
	}
	return out, nil
}

func invalid(d registry.Descriptor, p registry.Param, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Operation: d.Name, Field: p.Name, Reason: reason}
}

// coerce returns the normalized value, or a non-empty reason when v does not match p.
func coerce(p registry.Param, v any) (any, string) {
	switch p.Type {
	case registry.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Sprintf("must be a string, got %s", kindOf(v))
		}
		if p.Required && strings.TrimSpace(s) == "" {
			return nil, "must not be empty"
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			return nil, fmt.Sprintf("must be one of %s (got %q)", strings.Join(p.Enum, ", "), s)
		}
		return s, ""

	case registry.TypeNumber:
		f, ok := number(v)
		if !ok {
			return nil, fmt.Sprintf("must be a number, got %s", kindOf(v))
		}
		return f, ""

	case registry.TypeInteger:
		f, ok := number(v)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Sprintf("must be an integer, got %s", kindOf(v))
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Sprintf("is out of range (%g)", f)
		}
		return int64(f), ""

	case registry.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Sprintf("must be a boolean, got %s", kindOf(v))
		}
		return b, ""

	case registry.TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Sprintf("must be an object, got %s", kindOf(v))
		}
		return m, ""

	case registry.TypeScalar:
		if s, ok := v.(string); ok {
			return s, ""
		}
		if f, ok := number(v); ok {
			return f, ""
		}
		return nil, fmt.Sprintf("must be a string or a number, got %s", kindOf(v))
	}
	return v, ""
}

// number accepts numeric kinds only; numeric strings are not numbers.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, err := cast.ToFloat64E(n)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := number(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
