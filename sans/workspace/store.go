// Package workspace provides the named store through which reduction stages
// hand frames and curves to each other.
//
// Entries are owned by the stage that created them until removed. Stages
// create transient entries through a [Scope] and defer [Scope.Close] so that
// nothing leaks into the store across repeated runs, including on failure.
package workspace

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/algo-sans/sans/frame"
)

// Errors returned by store operations.
var (
	ErrNotFound        = errors.New("workspace: no entry")
	ErrUnsupportedType = errors.New("workspace: unsupported entry type")
	ErrWrongType       = errors.New("workspace: entry has a different type")
	ErrEmptyName       = errors.New("workspace: empty name")
)

// Store is string-keyed access to frames and curves.
type Store interface {
	Get(name string) (any, bool)
	Put(name string, value any) error
	Remove(name string)
	Exists(name string) bool
	Names() []string
}

// MemoryStore is an in-process Store, safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]any)}
}

// Get returns the entry stored under name.
func (s *MemoryStore) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[name]

	return v, ok
}

// Put stores a *frame.Frame or *frame.Curve under name, replacing any previous entry.
func (s *MemoryStore) Put(name string, value any) error {
	if name == "" {
		return ErrEmptyName
	}

	switch v := value.(type) {
	case *frame.Frame:
		if v == nil {
			return fmt.Errorf("%w: nil frame for %q", ErrUnsupportedType, name)
		}
	case *frame.Curve:
		if v == nil {
			return fmt.Errorf("%w: nil curve for %q", ErrUnsupportedType, name)
		}
	default:
		return fmt.Errorf("%w: %T for %q", ErrUnsupportedType, value, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[name] = value

	return nil
}

// Remove deletes name. Removing a missing entry is a no-op.
func (s *MemoryStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, name)
}

// Exists reports whether name is present.
func (s *MemoryStore) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[name]

	return ok
}

// Names returns all entry names in sorted order.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Frame fetches name from s as a frame.
func Frame(s Store, name string) (*frame.Frame, error) {
	v, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	f, ok := v.(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want frame", ErrWrongType, name, v)
	}

	return f, nil
}

// Curve fetches name from s as a transmission curve.
func Curve(s Store, name string) (*frame.Curve, error) {
	v, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	c, ok := v.(*frame.Curve)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want curve", ErrWrongType, name, v)
	}

	return c, nil
}
