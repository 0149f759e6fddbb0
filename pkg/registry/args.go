package registry

import (
	"github.com/spf13/cast"
)

// Args are the validated arguments of one invocation. Accessors coerce
// loosely typed protocol values (float64 integers, json.Number, "true").
type Args map[string]any

// Has reports whether key was supplied (after defaults were applied).
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns key as a string, or "" when absent.
func (a Args) String(key string) string {
	return cast.ToString(a[key])
}

// Int returns key as an int, or 0 when absent or not numeric.
func (a Args) Int(key string) int {
	return cast.ToInt(a[key])
}

// Bool returns key as a bool, or false when absent.
func (a Args) Bool(key string) bool {
	return cast.ToBool(a[key])
}

// BoolPtr returns nil when key is absent, so callers can leave upstream defaults alone.
func (a Args) BoolPtr(key string) *bool {
	if !a.Has(key) {
		return nil
	}
	b := cast.ToBool(a[key])
	return &b
}

// StringPtr returns nil when key is absent.
func (a Args) StringPtr(key string) *string {
	if !a.Has(key) {
		return nil
	}
	s := cast.ToString(a[key])
	return &s
}

// Map returns key as an object, or nil when absent.
func (a Args) Map(key string) map[string]any {
	if !a.Has(key) {
		return nil
	}
	return cast.ToStringMap(a[key])
}

// Value returns the raw value for key.
func (a Args) Value(key string) any {
	return a[key]
}
