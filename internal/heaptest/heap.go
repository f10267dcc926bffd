package heaptest

import (
	"fmt"
	"math"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/memory"
	"github.com/wippyai/heapview/metadata"
)

// Class names used by the canonical collection builders.
const (
	ListClass       = "System.Collections.Generic.List`1"
	DictionaryClass = "System.Collections.Generic.Dictionary`2"
	EntryClass      = "System.Collections.Generic.Dictionary`2.Entry"
	EntryArrayClass = "System.Collections.Generic.Dictionary`2.Entry[]"
	ObjectArray     = "System.Object[]"
	ObjectClass     = "System.Object"
)

const (
	heapBase  = 0x10000
	classBase = 0x7f0000
	// gap keeps neighbouring allocations in separate segments with an
	// unmapped hole between them.
	gap = 0x40
)

// Heap is a synthetic foreign heap: a segment buffer plus class tables.
type Heap struct {
	Mem       *memory.Buffer
	RT        *Runtime
	Layout    heapview.Layout
	next      heapview.Address
	nextClass metadata.Handle
}

// New creates an empty heap for the given pointer width.
func New(ptrWidth uint32) *Heap {
	return &Heap{
		Mem:       memory.NewBuffer(),
		RT:        NewRuntime(),
		Layout:    heapview.DefaultLayout(ptrWidth),
		next:      heapBase,
		nextClass: classBase,
	}
}

// P returns the pointer width.
func (h *Heap) P() uint32 {
	return h.Layout.PointerWidth
}

// Define registers a class and returns its handle.
func (h *Heap) Define(def ClassDef) metadata.Handle {
	if def.Handle == 0 {
		def.Handle = h.nextClass
		h.nextClass += 0x100
	}
	d := def
	h.RT.Add(&d)
	return d.Handle
}

// DefineClass registers a reference class with the given fields.
func (h *Heap) DefineClass(name string, size uint32, fields map[string]uint32) metadata.Handle {
	return h.Define(ClassDef{Name: name, Size: size, Fields: fields})
}

// DefineArray registers an array class over elem.
func (h *Heap) DefineArray(name string, elem metadata.Handle) metadata.Handle {
	return h.Define(ClassDef{Name: name, Size: h.Layout.ArrayHeader, Element: elem})
}

// Alloc maps size zeroed bytes and returns the address.
func (h *Heap) Alloc(size uint32) heapview.Address {
	if size == 0 {
		size = h.P()
	}
	addr := h.next
	if _, err := h.Mem.Alloc(addr, size); err != nil {
		panic(fmt.Sprintf("heaptest: alloc: %v", err))
	}
	h.next = (addr + uint64(size) + gap + 15) &^ 15
	return addr
}

// New allocates an instance of class and writes its class pointer.
func (h *Heap) New(class metadata.Handle) heapview.Address {
	def := h.RT.Class(class)
	if def == nil {
		panic(fmt.Sprintf("heaptest: unknown class 0x%x", uint64(class)))
	}
	size := def.Size
	if size < h.Layout.ObjectHeader {
		size = h.Layout.ObjectHeader
	}
	addr := h.Alloc(size)
	h.PutPtr(addr, 0, heapview.Address(class))
	return addr
}

// NewArray allocates an array of length elements of stride bytes.
func (h *Heap) NewArray(class metadata.Handle, length, stride uint32) heapview.Address {
	addr := h.Alloc(h.Layout.ArrayHeader + length*stride)
	h.PutPtr(addr, 0, heapview.Address(class))
	h.PutPtr(addr, h.Layout.ArrayLengthOffset, heapview.Address(length))
	return addr
}

// PutI32 writes a 32-bit integer at addr+off.
func (h *Heap) PutI32(addr heapview.Address, off uint32, v int32) {
	h.must(h.Mem.WriteU32(addr+uint64(off), uint32(v)))
}

// PutF32 writes a 32-bit float at addr+off.
func (h *Heap) PutF32(addr heapview.Address, off uint32, v float32) {
	h.must(h.Mem.WriteU32(addr+uint64(off), math.Float32bits(v)))
}

// PutBool writes a boolean byte at addr+off.
func (h *Heap) PutBool(addr heapview.Address, off uint32, v bool) {
	var b uint8
	if v {
		b = 1
	}
	h.must(h.Mem.WriteU8(addr+uint64(off), b))
}

// PutPtr writes a pointer-sized value at addr+off.
func (h *Heap) PutPtr(addr heapview.Address, off uint32, v heapview.Address) {
	if h.P() == 4 {
		h.must(h.Mem.WriteU32(addr+uint64(off), uint32(v)))
		return
	}
	h.must(h.Mem.WriteU64(addr+uint64(off), v))
}

func (h *Heap) must(err error) {
	if err != nil {
		panic(fmt.Sprintf("heaptest: %v", err))
	}
}

// Object allocates a plain System.Object instance, handy as a key or value.
func (h *Heap) Object() heapview.Address {
	cls, ok := h.RT.names[ObjectClass]
	if !ok {
		cls = h.DefineClass(ObjectClass, h.Layout.ObjectHeader, nil)
	}
	return h.New(cls)
}
