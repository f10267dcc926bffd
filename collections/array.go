package collections

import (
	"iter"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/internal/rawmem"
	"github.com/wippyai/heapview/remote"
)

// Array is a view over contiguous elements.
type Array struct {
	data   remote.Object
	stride uint32
	length uint32
}

// NewArray creates a view over length elements of stride bytes starting at
// data. data addresses the first element, not the array header.
func NewArray(data remote.Object, stride, length uint32) Array {
	if data.IsNull() || stride == 0 {
		return Array{data: data}
	}
	return Array{data: data, stride: stride, length: length}
}

// ArrayOf builds a view over a foreign array object, reading the length from
// the array header and the stride from the element class. A length above the
// ceiling is clamped.
func ArrayOf(arr remote.Object) Array {
	a, err := TryArrayOf(arr)
	if err != nil && !clamped(err) {
		return Array{data: nullOf(arr)}
	}
	return a
}

// TryArrayOf is ArrayOf with the failure reason. When the declared length
// exceeds the ceiling it returns the clamped view together with an
// out_of_bounds error.
func TryArrayOf(arr remote.Object) (Array, error) {
	if arr.IsNull() {
		return Array{}, errors.NullTarget(errors.PhaseEnumerate, nil)
	}
	layout := arr.Heap().Layout()

	n, err := arr.TryReadPointer(remote.At(layout.ArrayLengthOffset))
	if err != nil {
		return Array{}, err
	}
	length := n.Addr()

	stride := layout.PointerWidth
	if cls, err := arr.TryClass(); err == nil && cls.Element != nil {
		stride = ElementStride(layout, cls.Element.ValueType && cls.Element.HasKind, cls.Element.InstanceSize, cls.Element.HasSize)
	}

	a := NewArray(arr.Offset(layout.ArrayHeader), stride, clampLength(length, layout))
	if length > uint64(layout.MaxElements) {
		return a, errors.CeilingExceeded(errors.PhaseEnumerate, length, layout.MaxElements)
	}
	return a, nil
}

// ElementStride returns the slot size for an element class: a pointer for
// reference types, the instance size minus the object header for value types.
func ElementStride(layout heapview.Layout, valueType bool, size uint32, hasSize bool) uint32 {
	if !valueType || !hasSize || size <= layout.ObjectHeader {
		return layout.PointerWidth
	}
	return size - layout.ObjectHeader
}

func clampLength(n uint64, layout heapview.Layout) uint32 {
	if n > uint64(layout.MaxElements) {
		return layout.MaxElements
	}
	return uint32(n)
}

// clamped reports whether err only says a declared count was cut to the
// ceiling, in which case the accompanying view is usable.
func clamped(err error) bool {
	return errors.IsKind(err, errors.KindOutOfBounds)
}

func nullOf(o remote.Object) remote.Object {
	if h := o.Heap(); h != nil {
		return h.Null()
	}
	return remote.Object{}
}

// Len returns the declared element count.
func (a Array) Len() int {
	return int(a.length)
}

// Stride returns the element size in bytes.
func (a Array) Stride() uint32 {
	return a.stride
}

// TrySlot returns a handle at the start of element i.
func (a Array) TrySlot(i int) (remote.Object, error) {
	if i < 0 || i >= int(a.length) {
		return nullOf(a.data), errors.OutOfBounds(errors.PhaseEnumerate, nil, i, int(a.length))
	}
	addr, err := rawmem.Elem(errors.PhaseEnumerate, a.data.Addr(), uint64(i), uint64(a.stride))
	if err != nil {
		return nullOf(a.data), err
	}
	return a.data.Heap().Object(addr), nil
}

// Slot returns a handle at the start of element i, for inline value-type
// elements read with literal offsets. Out-of-range indices yield a null
// handle without touching memory.
func (a Array) Slot(i int) remote.Object {
	o, _ := a.TrySlot(i)
	return o
}

// TryGet dereferences the reference stored in element i.
func (a Array) TryGet(i int) (remote.Object, error) {
	slot, err := a.TrySlot(i)
	if err != nil {
		return slot, err
	}
	return slot.TryReadPointer(remote.At(0))
}

// Get dereferences the reference stored in element i. Out-of-range indices
// yield a null handle without touching memory.
func (a Array) Get(i int) remote.Object {
	o, err := a.TryGet(i)
	if err != nil {
		return nullOf(a.data)
	}
	return o
}

// All yields the references stored in elements 0..Len()-1, stopping at the
// first fault.
func (a Array) All() iter.Seq[remote.Object] {
	return func(yield func(remote.Object) bool) {
		for i := range int(a.length) {
			o, err := a.TryGet(i)
			if err != nil {
				return
			}
			if !yield(o) {
				return
			}
		}
	}
}

// Slots yields the element slots 0..Len()-1.
func (a Array) Slots() iter.Seq2[int, remote.Object] {
	return func(yield func(int, remote.Object) bool) {
		for i := range int(a.length) {
			o, err := a.TrySlot(i)
			if err != nil {
				return
			}
			if !yield(i, o) {
				return
			}
		}
	}
}
