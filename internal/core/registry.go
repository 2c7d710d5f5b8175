package core

import (
	"fmt"
	"sort"
	"sync"
)

// Definition is everything the pipeline needs to know about one domain.
type Definition struct {
	Domain      Domain
	Label       string // Display name ("Core product")
	Description string
	Catalog     *Catalog
}

// Schema is shorthand for the catalog's schema.
func (d Definition) Schema() Schema {
	return d.Catalog.Schema()
}

// Registry maps action tags to domain definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[Domain]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Domain]Definition)}
}

// Register adds a definition. The domain must be one of the fixed action
// tags, carry a catalog built for it, and not be registered yet.
func (r *Registry) Register(def Definition) error {
	if !def.Domain.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, def.Domain)
	}
	if def.Catalog == nil {
		return fmt.Errorf("domain %s: missing rule catalog", def.Domain)
	}
	if def.Catalog.Domain() != def.Domain {
		return fmt.Errorf("domain %s: catalog built for %s", def.Domain, def.Catalog.Domain())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Domain]; exists {
		return fmt.Errorf("domain already registered: %s", def.Domain)
	}
	r.defs[def.Domain] = def
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns a definition by domain.
// Returns ErrUnknownDomain if not found.
func (r *Registry) Get(d Domain) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[d]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
	return def, nil
}

// All returns every definition sorted by domain for consistent ordering.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Domain < result[j].Domain
	})

	return result
}

// Len returns the number of registered domains.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
