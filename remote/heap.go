package remote

import (
	"go.uber.org/zap"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/metadata"
	"github.com/wippyai/heapview/offsets"
)

// Heap is the accessor context for one foreign runtime instance.
type Heap struct {
	mem     heapview.Memory
	classes *metadata.Cache
	offsets *offsets.Resolver
	log     *zap.Logger
	layout  heapview.Layout
}

// Option configures a Heap.
type Option func(*Heap)

// WithLayout sets the foreign ABI layout. The default is 64-bit.
func WithLayout(l heapview.Layout) Option {
	return func(h *Heap) {
		h.layout = l
	}
}

// WithLogger overrides the package logger for this heap.
func WithLogger(l *zap.Logger) Option {
	return func(h *Heap) {
		h.log = l
	}
}

// NewHeap creates a heap over mem whose classes are described by rt.
func NewHeap(mem heapview.Memory, rt metadata.Runtime, opts ...Option) *Heap {
	h := &Heap{
		mem:     mem,
		classes: metadata.NewCache(rt),
		offsets: offsets.NewResolver(rt),
		layout:  heapview.DefaultLayout(8),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = Logger()
	}
	return h
}

// Memory returns the foreign address space.
func (h *Heap) Memory() heapview.Memory {
	return h.mem
}

// Layout returns the foreign ABI layout.
func (h *Heap) Layout() heapview.Layout {
	return h.layout
}

// Logger returns the heap's logger.
func (h *Heap) Logger() *zap.Logger {
	return h.log
}

// Classes returns the class metadata cache.
func (h *Heap) Classes() *metadata.Cache {
	return h.classes
}

// Offsets returns the field offset resolver.
func (h *Heap) Offsets() *offsets.Resolver {
	return h.offsets
}

// Object returns a handle to the object at addr. Zero yields a null handle.
func (h *Heap) Object(addr heapview.Address) Object {
	return Object{heap: h, addr: addr}
}

// Null returns a null handle bound to this heap.
func (h *Heap) Null() Object {
	return Object{heap: h}
}

// ResolveClass resolves a class by fully-qualified name.
func (h *Heap) ResolveClass(name string) (*metadata.Class, error) {
	return h.classes.Resolve(name)
}

// ResolveOffset resolves a field offset in class, trying fallbacks in order.
func (h *Heap) ResolveOffset(class *metadata.Class, name string, fallbacks ...string) (uint32, error) {
	return h.offsets.OffsetOf(class, name, fallbacks...)
}

// Reset invalidates class and offset caches. Call it when the foreign
// runtime reloads or its version changes.
func (h *Heap) Reset() {
	h.classes.Reset()
	h.offsets.Reset()
	h.log.Info("heap caches reset")
}
