package actions

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

const registryLogPrefix = "actions:registry"

// Variant pairs a handler variant name with its constructor.
type Variant struct {
	Name string
	New  Constructor
}

// Registry maps exact-case variant names to constructors. The index is built
// on first use from the discover function and is read-only afterwards.
type Registry struct {
	discover func() []Variant

	once   sync.Once
	index  map[string]Constructor
	builds atomic.Int32
}

// NewRegistry creates a registry over the closed variant set returned by
// discover. discover runs at most once.
func NewRegistry(discover func() []Variant) *Registry {
	return &Registry{discover: discover}
}

var defaultRegistry = NewRegistry(BuiltinVariants)

// DefaultRegistry returns the process-wide registry of built-in variants.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func (r *Registry) build() {
	r.once.Do(func() {
		r.builds.Add(1)
		index := make(map[string]Constructor)
		if r.discover != nil {
			for _, v := range r.discover() {
				if v.Name == "" || v.New == nil {
					slog.Warn(fmt.Sprintf("%s - skipping incomplete variant %q", registryLogPrefix, v.Name))
					continue
				}
				index[v.Name] = v.New
			}
		}
		r.index = index
		slog.Debug(fmt.Sprintf("%s - indexed %d handler variants", registryLogPrefix, len(index)))
	})
}

// Lookup returns the constructor registered under name. A miss is a normal
// outcome, not an error.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.build()
	ctor, ok := r.index[name]
	return ctor, ok
}

// Names returns the registered variant names in sorted order.
func (r *Registry) Names() []string {
	r.build()
	names := make([]string, 0, len(r.index))
	for name := range r.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builds reports how many times the index has been built (0 or 1).
func (r *Registry) Builds() int {
	return int(r.builds.Load())
}
