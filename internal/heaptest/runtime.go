// Package heaptest builds synthetic foreign heaps for tests.
package heaptest

import (
	"sync/atomic"

	"github.com/wippyai/heapview/metadata"
)

// ClassDef describes a fake foreign class.
type ClassDef struct {
	Fields    map[string]uint32
	Name      string
	Handle    metadata.Handle
	Base      metadata.Handle
	Element   metadata.Handle
	Size      uint32
	NoSize    bool
	ValueType bool
}

// Runtime is an in-memory metadata.Runtime that counts calls.
type Runtime struct {
	classes map[metadata.Handle]*ClassDef
	names   map[string]metadata.Handle
	calls   atomic.Int64
}

var (
	_ metadata.Runtime    = (*Runtime)(nil)
	_ metadata.ValueTyper = (*Runtime)(nil)
)

// NewRuntime creates an empty runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		classes: make(map[metadata.Handle]*ClassDef),
		names:   make(map[string]metadata.Handle),
	}
}

// Add registers a class definition.
func (r *Runtime) Add(def *ClassDef) {
	if def.Fields == nil {
		def.Fields = make(map[string]uint32)
	}
	r.classes[def.Handle] = def
	r.names[def.Name] = def.Handle
}

// Class returns the definition for h.
func (r *Runtime) Class(h metadata.Handle) *ClassDef {
	return r.classes[h]
}

// Calls returns the number of metadata calls served.
func (r *Runtime) Calls() int64 {
	return r.calls.Load()
}

func (r *Runtime) ClassFromName(name string) (metadata.Handle, bool) {
	r.calls.Add(1)
	h, ok := r.names[name]
	return h, ok
}

func (r *Runtime) ClassName(h metadata.Handle) (string, bool) {
	r.calls.Add(1)
	c, ok := r.classes[h]
	if !ok {
		return "", false
	}
	return c.Name, true
}

func (r *Runtime) InstanceSize(h metadata.Handle) (uint32, bool) {
	r.calls.Add(1)
	c, ok := r.classes[h]
	if !ok || c.NoSize {
		return 0, false
	}
	return c.Size, true
}

func (r *Runtime) ElementClass(h metadata.Handle) (metadata.Handle, bool) {
	r.calls.Add(1)
	c, ok := r.classes[h]
	if !ok || c.Element == 0 {
		return 0, false
	}
	return c.Element, true
}

func (r *Runtime) FieldOffset(h metadata.Handle, field string) (uint32, bool) {
	r.calls.Add(1)
	for depth := 0; depth < 16; depth++ {
		c, ok := r.classes[h]
		if !ok {
			return 0, false
		}
		if off, ok := c.Fields[field]; ok {
			return off, true
		}
		if c.Base == 0 {
			return 0, false
		}
		h = c.Base
	}
	return 0, false
}

func (r *Runtime) IsValueType(h metadata.Handle) (bool, bool) {
	c, ok := r.classes[h]
	if !ok {
		return false, false
	}
	return c.ValueType, true
}
