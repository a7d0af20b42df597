package generate

import (
	"sort"
	"sync"

	"github.com/stackforge/typesync/errors"
)

// Registry holds the registered generators. It is explicitly constructed
// and passed by reference; there is no package-level instance.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// NewBuiltinRegistry creates a registry pre-populated with the built-in
// generators.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewTypesGenerator())
	r.Register(NewClientGenerator())
	r.Register(NewHooksGenerator())
	return r
}

// Register adds a generator, replacing any existing generator with the same
// ID. Replacement is deliberate: callers override built-ins this way.
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.ID()] = g
}

// Get retrieves a generator by ID.
func (r *Registry) Get(id string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[id]
	return g, ok
}

// Remove deletes a generator by ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.generators[id]; !ok {
		return errors.Newf("generator not registered: %s", id)
	}
	delete(r.generators, id)
	return nil
}

// List returns all registered generator IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.generators))
	for id := range r.generators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByGroup returns the generators of one group, sorted by ID for
// deterministic scheduling.
func (r *Registry) ByGroup(group Group) []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Generator
	for _, g := range r.generators {
		if g.Group() == group {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
