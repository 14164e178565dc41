package oxt

// registry keeps entries in insertion order with insert-or-replace semantics
// keyed on the archive path. A replaced entry keeps its original position.
type registry struct {
	entries []Entry
	index   map[string]int
}

func newRegistry() *registry {
	return &registry{index: make(map[string]int)}
}

func (r *registry) put(e Entry) (previous Entry, replaced bool) {
	if idx, ok := r.index[e.Path]; ok {
		previous = r.entries[idx]
		r.entries[idx] = e
		return previous, true
	}
	r.index[e.Path] = len(r.entries)
	r.entries = append(r.entries, e)
	return Entry{}, false
}

func (r *registry) get(path string) (Entry, bool) {
	idx, ok := r.index[path]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

func (r *registry) len() int {
	return len(r.entries)
}

// all returns a copy so callers cannot reorder the arena.
func (r *registry) all() []Entry {
	return append([]Entry(nil), r.entries...)
}
