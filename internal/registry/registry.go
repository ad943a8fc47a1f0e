// Package registry maps configuration names to factories of named implementations.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("registry: duplicate name")
	// ErrUnknown is returned by Resolve for an unregistered name.
	ErrUnknown = errors.New("registry: unknown name")
)

// Registry maps names to values of type T, typically factories.
type Registry[T any] struct {
	kind    string
	entries map[string]T
}

// New creates an empty registry. kind is used in error messages.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, entries: make(map[string]T)}
}

// Register adds value under name.
func (r *Registry[T]) Register(name string, value T) error {
	if name == "" {
		return fmt.Errorf("registry: empty %s name", r.kind)
	}

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s %q", ErrDuplicate, r.kind, name)
	}

	r.entries[name] = value

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[T]) MustRegister(name string, value T) {
	if err := r.Register(name, value); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the value registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	v, ok := r.entries[name]
	return v, ok
}

// Resolve is Lookup with an error naming the missing entry.
func (r *Registry[T]) Resolve(name string) (T, error) {
	v, ok := r.entries[name]
	if !ok {
		return v, fmt.Errorf("%w: %s %q (known: %v)", ErrUnknown, r.kind, name, r.Names())
	}

	return v, nil
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
