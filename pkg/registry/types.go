// Package registry holds the fixed catalog of tool operations: their names,
// parameter schemas, and the handlers bound to the upstream resource client.
package registry

import (
	"context"
	"fmt"

	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/format"
)

// ParamType is the declared type of a tool argument.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	// TypeScalar accepts a string or a number.
	TypeScalar ParamType = "scalar"
)

// Param describes one named argument.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// Handler executes one operation against validated arguments.
type Handler func(ctx context.Context, args Args) console.Envelope

// Descriptor is one registered operation. Immutable after registration.
type Descriptor struct {
	Name        string  `json:"name"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	// Resource groups operations over one upstream entity; successful
	// mutations invalidate cached reads of the same resource.
	Resource string      `json:"resource"`
	Kind     format.Kind `json:"kind"`
	Noun     string      `json:"-"`
	Plural   string      `json:"-"`
	// IDParam names the argument that identifies the affected entity.
	IDParam string `json:"-"`

	Cacheable   bool `json:"cacheable"`
	ReadOnly    bool `json:"readOnly"`
	Destructive bool `json:"destructive"`
	Idempotent  bool `json:"idempotent"`

	Handler Handler `json:"-"`
}

// Mutates reports whether a successful call changes upstream state.
func (d Descriptor) Mutates() bool { return !d.ReadOnly }

// Param returns the named parameter.
func (d Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Subject builds the formatter subject for a call with args.
func (d Descriptor) Subject(args Args) format.Subject {
	s := format.Subject{Noun: d.Noun, Plural: d.Plural}
	if d.IDParam != "" {
		s.ID = args.String(d.IDParam)
	}
	if d.Kind == format.KindExport {
		s.Hint = args.String("format")
	}
	return s
}

// UnknownOperationError is returned by Resolve for a name that was never registered.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %s", e.Name)
}

// DuplicateOperationError is returned by Register when a name is reused.
type DuplicateOperationError struct {
	Name string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("operation %q is already registered", e.Name)
}
