package metric

import "sync"

// Registry is a process-wide cache mapping (system, category, name) to a
// lazily created definition. Get-or-create is atomic: concurrent first-time
// callers converge on a single stored definition, and the schema is fixed by
// whichever caller registers first. Definitions are never invalidated.
type Registry struct {
	mu   sync.Mutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Default is the shared process-wide registry.
var Default = NewRegistry()

// GetOrCreate returns the definition for the identity, invoking build exactly
// once per identity to produce the slot schema. A build error is returned to
// that one caller and nothing is stored; callers must treat a nil definition
// as "skip recording silently" rather than failing the monitored operation.
func (r *Registry) GetOrCreate(system, category, name string, build func() ([]ValueSlot, error)) (*Definition, error) {
	key := DefinitionKey(system, category, name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.defs[key]; ok {
		return d, nil
	}
	slots, err := build()
	if err != nil {
		return nil, err
	}
	d := NewDefinition(system, category, name, slots)
	r.defs[key] = d
	return d, nil
}

// Lookup returns an already-registered definition, if any.
func (r *Registry) Lookup(system, category, name string) (*Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[DefinitionKey(system, category, name)]
	return d, ok
}

// Len reports the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.defs)
}
