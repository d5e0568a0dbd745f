package extract

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSchema reports a schema tag with no registry entry. This is a
// configuration error: the set of known tags is fixed at startup.
var ErrUnknownSchema = errors.New("unknown schema tag")

// SchemaEntry couples a schema tag with its JSON-Schema and validator.
type SchemaEntry struct {
	Tag    string
	Schema map[string]any
	// Validate checks a raw artifact payload against the schema.
	Validate func(data []byte) error
}

// Registry maps a fixed set of schema tags to validators. Artifacts carry a
// tag, never a type name, so resolution is a table lookup rather than any
// kind of runtime type discovery.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]SchemaEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]SchemaEntry)}
}

// DefaultRegistry returns a registry with the built-in artifact schemas.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	contractSchema := BuildContractJSONSchema()
	r.Register(SchemaEntry{
		Tag:    SchemaContractFields,
		Schema: contractSchema,
		Validate: func(data []byte) error {
			return ValidateJSONAgainstSchema(contractSchema, data)
		},
	})
	return r
}

// Register adds or replaces an entry.
func (r *Registry) Register(e SchemaEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Tag] = e
}

// Lookup resolves a schema tag, failing with ErrUnknownSchema for tags that
// were never registered.
func (r *Registry) Lookup(tag string) (SchemaEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[tag]
	if !ok {
		return SchemaEntry{}, fmt.Errorf("%w: %q", ErrUnknownSchema, tag)
	}
	return e, nil
}

// Tags lists the registered schema tags in stable order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.entries))
	for t := range r.entries {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
