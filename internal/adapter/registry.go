package adapter

import (
	"sort"
	"strings"
)

// Registry looks adapters up by case-insensitive exchange name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry indexes the given adapters by their lower-cased names.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[strings.ToLower(string(a.Name()))] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[strings.ToLower(name)]
	return a, ok
}

// Names lists the registered exchange names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
