package enrichsources

import (
	"sync"
)

// Registry manages metadata sources and their fallback order.
// It provides thread-safe registration and retrieval; the fallback order is
// the order sources were registered in unless Ordered is given an explicit
// list.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]MetadataSource
}

// NewRegistry creates a new source registry with an empty source map.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]MetadataSource),
	}
}

// Register adds a source to the registry. Registering a name twice replaces
// the source but keeps its original position in the fallback order.
// This method is thread-safe.
func (r *Registry) Register(source MetadataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[source.Name()]; !ok {
		r.order = append(r.order, source.Name())
	}
	r.sources[source.Name()] = source
}

// Get returns a source by name, or nil if not found.
// This method is thread-safe.
func (r *Registry) Get(name string) MetadataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[name]
}

// Enabled returns the enabled sources in registration order.
// This method is thread-safe.
func (r *Registry) Enabled() []MetadataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]MetadataSource, 0, len(r.order))
	for _, name := range r.order {
		if source := r.sources[name]; source != nil && source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// Ordered returns the enabled sources in the given fallback order. Names not
// present in the registry, and registered sources not named, are skipped; a
// nil or empty list falls back to registration order.
// This method is thread-safe.
func (r *Registry) Ordered(names []string) []MetadataSource {
	if len(names) == 0 {
		return r.Enabled()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]MetadataSource, 0, len(names))
	for _, name := range names {
		if source := r.sources[name]; source != nil && source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}
