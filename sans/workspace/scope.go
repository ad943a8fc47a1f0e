package workspace

// Scope tracks the entries a stage puts into a store so they can be removed
// together. Close removes every tracked entry not released with Keep.
type Scope struct {
	store Store
	names []string
	kept  map[string]bool
}

// NewScope returns a scope writing to s.
func NewScope(s Store) *Scope {
	return &Scope{store: s, kept: map[string]bool{}}
}

// Put stores value under name and tracks it for removal.
func (sc *Scope) Put(name string, value any) error {
	if err := sc.store.Put(name, value); err != nil {
		return err
	}

	sc.Track(name)

	return nil
}

// Track marks an existing entry for removal on Close.
func (sc *Scope) Track(name string) {
	for _, n := range sc.names {
		if n == name {
			return
		}
	}

	sc.names = append(sc.names, name)
	delete(sc.kept, name)
}

// Keep releases name from the scope; Close will leave it in the store.
func (sc *Scope) Keep(names ...string) {
	for _, name := range names {
		sc.kept[name] = true
	}
}

// Release removes name immediately if it is tracked.
func (sc *Scope) Release(name string) {
	for i, n := range sc.names {
		if n == name {
			sc.store.Remove(name)
			sc.names = append(sc.names[:i], sc.names[i+1:]...)

			return
		}
	}
}

// Close removes all tracked entries that were not kept. Safe to call twice.
func (sc *Scope) Close() {
	for _, name := range sc.names {
		if !sc.kept[name] {
			sc.store.Remove(name)
		}
	}

	sc.names = nil
}
