package heapview

import "fmt"

// Address is a location in the foreign runtime's address space.
type Address = uint64

// Memory represents the foreign runtime's address space.
type Memory interface {
	Read(addr Address, length uint32) ([]byte, error)
	Write(addr Address, data []byte) error
	ReadU8(addr Address) (uint8, error)
	ReadU32(addr Address) (uint32, error)
	ReadU64(addr Address) (uint64, error)
	WriteU8(addr Address, value uint8) error
	WriteU32(addr Address, value uint32) error
	WriteU64(addr Address, value uint64) error
}

// MemorySizer provides the highest mapped address plus one.
type MemorySizer interface {
	Size() uint64
}

// DefaultMaxElements bounds declared collection counts. Larger counts are
// treated as misreads.
const DefaultMaxElements = 10000

// Layout is the in-memory ABI of the foreign runtime.
type Layout struct {
	// PointerWidth is 4 or 8.
	PointerWidth uint32
	// ObjectHeader precedes user fields: class pointer + bookkeeping.
	ObjectHeader uint32
	// ArrayHeader precedes array elements.
	ArrayHeader uint32
	// ArrayLengthOffset locates the pointer-sized element count in the array header.
	ArrayLengthOffset uint32
	// MaxElements is the sanity ceiling for declared counts.
	MaxElements uint32
}

// DefaultLayout returns the layout for the given pointer width.
func DefaultLayout(ptrWidth uint32) Layout {
	return Layout{
		PointerWidth:      ptrWidth,
		ObjectHeader:      2 * ptrWidth,
		ArrayHeader:       4 * ptrWidth,
		ArrayLengthOffset: 3 * ptrWidth,
		MaxElements:       DefaultMaxElements,
	}
}

// Validate checks the layout is internally consistent.
func (l Layout) Validate() error {
	if l.PointerWidth != 4 && l.PointerWidth != 8 {
		return fmt.Errorf("pointer width must be 4 or 8, got %d", l.PointerWidth)
	}
	if l.ObjectHeader < l.PointerWidth {
		return fmt.Errorf("object header %d smaller than class pointer", l.ObjectHeader)
	}
	if l.ArrayLengthOffset+l.PointerWidth > l.ArrayHeader {
		return fmt.Errorf("array length at %d overruns header of %d bytes", l.ArrayLengthOffset, l.ArrayHeader)
	}
	if l.MaxElements == 0 {
		return fmt.Errorf("max elements must be positive")
	}
	return nil
}

// FallbackEntryStride is the canonical hash-map slot size:
// [int32 hashCode][int32 next][key][value].
func (l Layout) FallbackEntryStride() uint32 {
	return 8 + 2*l.PointerWidth
}
