// Package offsets resolves named instance fields to byte offsets.
//
// Field names inside the foreign runtime change across versions (_entries
// vs entries), so every lookup takes a primary name plus fallbacks. The
// first candidate the class metadata knows wins, and the result is cached
// under the primary name for that exact class. Offsets are never shared
// between classes, subclasses included.
package offsets

import (
	"sync"

	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/metadata"
)

// Standard alias sets for collection internals, primary name first.
var (
	Count     = []string{"_count", "count"}
	Size      = []string{"_size", "size"}
	Items     = []string{"_items", "items"}
	Entries   = []string{"_entries", "entries"}
	FreeCount = []string{"_freeCount", "freeCount"}
)

type key struct {
	name  string
	class metadata.Handle
}

// Resolver caches field offsets per (class, requested name).
type Resolver struct {
	rt      metadata.Runtime
	offsets map[key]uint32
	mu      sync.RWMutex
}

// NewResolver creates a resolver over rt.
func NewResolver(rt metadata.Runtime) *Resolver {
	return &Resolver{
		rt:      rt,
		offsets: make(map[key]uint32),
	}
}

// OffsetOf returns the offset of name in class, trying fallbacks in order.
func (r *Resolver) OffsetOf(class *metadata.Class, name string, fallbacks ...string) (uint32, error) {
	if class == nil {
		return 0, errors.NullTarget(errors.PhaseOffset, append([]string{name}, fallbacks...))
	}
	k := key{class: class.Handle, name: name}

	r.mu.RLock()
	off, ok := r.offsets[k]
	r.mu.RUnlock()
	if ok {
		return off, nil
	}

	candidates := append([]string{name}, fallbacks...)
	for _, candidate := range candidates {
		if off, ok := r.rt.FieldOffset(class.Handle, candidate); ok {
			r.mu.Lock()
			r.offsets[k] = off
			r.mu.Unlock()
			return off, nil
		}
	}
	return 0, errors.UnresolvedField(class.String(), candidates)
}

// Lookup resolves the first alias in names, using the rest as fallbacks.
func (r *Resolver) Lookup(class *metadata.Class, names []string) (uint32, error) {
	if len(names) == 0 {
		return 0, errors.InvalidInput(errors.PhaseOffset, "no field names")
	}
	return r.OffsetOf(class, names[0], names[1:]...)
}

// Cached reports whether name already has a cached offset for class.
func (r *Resolver) Cached(class *metadata.Class, name string) (uint32, bool) {
	if class == nil {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	off, ok := r.offsets[key{class: class.Handle, name: name}]
	return off, ok
}

// Reset drops every cached offset.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.offsets = make(map[key]uint32)
	r.mu.Unlock()
}
