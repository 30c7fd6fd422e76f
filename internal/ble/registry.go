package ble

import "sync"

// Registry holds the peripherals seen during one scan session, one entry per
// device identifier, in first-seen order. Later observations of the same
// identifier update the entry in place.
type Registry struct {
	mu    sync.Mutex
	order []string
	byID  map[string]Peripheral
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Peripheral)}
}

// Observe records an advertisement. It reports whether the identifier was new.
func (r *Registry) Observe(p Peripheral) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, seen := r.byID[p.ID]
	if !seen {
		r.order = append(r.order, p.ID)
	}
	r.byID[p.ID] = p
	return !seen
}

// Clear drops every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byID = make(map[string]Peripheral)
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (Peripheral, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	return p, ok
}

// Len returns the number of unique peripherals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Snapshot returns a copy of the entries in first-seen order.
func (r *Registry) Snapshot() []Peripheral {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Peripheral, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
