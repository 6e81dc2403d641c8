// Package registry maps type names to constructors. The loader consults
// it when a stored record has no live counterpart to merge into.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signadot/graphstore/live"
)

// Factory returns a fresh, default initialized value.
type Factory func() any

// Registry stores factories keyed by type name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New returns a registry holding the builtin "map" factory, which also
// answers to "dict".
func New() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	newMap := func() any { return live.Map{} }
	r.factories[live.MapType] = newMap
	r.factories["dict"] = newMap
	return r
}

// Register stores f under name guarding against duplicates.
func (r *Registry) Register(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("registry: factory %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("registry: type name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("registry: type %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Resolve returns the factory registered under name.
func (r *Registry) Resolve(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the registry.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{factories: make(map[string]Factory, len(r.factories))}
	for name, f := range r.factories {
		clone.factories[name] = f
	}
	return clone
}

// RegisterType registers a factory returning a new *T under the type
// name of *T, and under each alias. Aliases let records stored under a
// former name of T load.
func RegisterType[T any](r *Registry, aliases ...string) error {
	f := func() any { return new(T) }
	if err := r.Register(live.TypeName(new(T)), f); err != nil {
		return err
	}
	for _, a := range aliases {
		if err := r.Register(a, f); err != nil {
			return err
		}
	}
	return nil
}
