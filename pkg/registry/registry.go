package registry

import (
	"fmt"
	"log/slog"
	"strings"
)

const logPrefix = "registry:registry"

// Registry maps operation names to descriptors. It is populated once at
// start-up and only read afterwards, so lookups take no locks.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds d. Reusing a name returns *DuplicateOperationError; callers
// treat any error here as fatal at construction.
func (r *Registry) Register(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%s - operation name is required", logPrefix)
	}
	if d.Handler == nil {
		return fmt.Errorf("%s - operation %q has no handler", logPrefix, d.Name)
	}
	if _, exists := r.byName[d.Name]; exists {
		return &DuplicateOperationError{Name: d.Name}
	}
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if seen[p.Name] {
			return fmt.Errorf("%s - operation %q declares parameter %q twice", logPrefix, d.Name, p.Name)
		}
		seen[p.Name] = true
	}
	if d.IDParam != "" && !seen[d.IDParam] {
		return fmt.Errorf("%s - operation %q identifies by undeclared parameter %q", logPrefix, d.Name, d.IDParam)
	}

	r.order = append(r.order, d.Name)
	r.byName[d.Name] = d
	slog.Debug(fmt.Sprintf("%s - Registered %s (resource=%s, cacheable=%t)", logPrefix, d.Name, d.Resource, d.Cacheable))
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, &UnknownOperationError{Name: name}
	}
	return d, nil
}

// DescribeAll returns every descriptor in registration order.
func (r *Registry) DescribeAll() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns every operation name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered operations.
func (r *Registry) Len() int { return len(r.order) }
