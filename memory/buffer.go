package memory

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/heapview"
)

// Segment is a contiguous mapped range.
type Segment struct {
	Data []byte
	Base heapview.Address
}

// End returns the first address past the segment.
func (s Segment) End() heapview.Address {
	return s.Base + uint64(len(s.Data))
}

// Buffer is an in-process Memory made of non-overlapping segments.
// Accesses that straddle two segments fail.
type Buffer struct {
	segments []Segment
	mu       sync.RWMutex
}

var _ heapview.Memory = (*Buffer)(nil)

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{segments: make([]Segment, 0, 4)}
}

// Map places data at base. The slice is used directly, not copied.
func (b *Buffer) Map(base heapview.Address, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty segment at 0x%x", base)
	}
	seg := Segment{Base: base, Data: data}
	if seg.End() < base {
		return fmt.Errorf("segment at 0x%x wraps the address space", base)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := sort.Search(len(b.segments), func(i int) bool { return b.segments[i].Base >= base })
	if i > 0 && b.segments[i-1].End() > base {
		return fmt.Errorf("segment at 0x%x overlaps segment at 0x%x", base, b.segments[i-1].Base)
	}
	if i < len(b.segments) && b.segments[i].Base < seg.End() {
		return fmt.Errorf("segment at 0x%x overlaps segment at 0x%x", base, b.segments[i].Base)
	}

	b.segments = append(b.segments, Segment{})
	copy(b.segments[i+1:], b.segments[i:])
	b.segments[i] = seg
	return nil
}

// Alloc maps a zeroed segment of size bytes at base and returns it.
func (b *Buffer) Alloc(base heapview.Address, size uint32) ([]byte, error) {
	data := make([]byte, size)
	if err := b.Map(base, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Segments returns a copy of the segment table in address order.
func (b *Buffer) Segments() []Segment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Segment, len(b.segments))
	copy(out, b.segments)
	return out
}

// Size returns the end of the highest segment.
func (b *Buffer) Size() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.segments) == 0 {
		return 0
	}
	return b.segments[len(b.segments)-1].End()
}

func (b *Buffer) span(addr heapview.Address, length uint32) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := sort.Search(len(b.segments), func(i int) bool { return b.segments[i].End() > addr })
	if i == len(b.segments) || b.segments[i].Base > addr {
		return nil, fmt.Errorf("address 0x%x not mapped", addr)
	}
	seg := b.segments[i]
	off := addr - seg.Base
	if off+uint64(length) > uint64(len(seg.Data)) {
		return nil, fmt.Errorf("access at 0x%x length %d crosses segment end 0x%x", addr, length, seg.End())
	}
	return seg.Data[off : off+uint64(length)], nil
}

// Read reads bytes from memory.
func (b *Buffer) Read(addr heapview.Address, length uint32) ([]byte, error) {
	src, err := b.span(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, src)
	return out, nil
}

// Write writes bytes to memory.
func (b *Buffer) Write(addr heapview.Address, data []byte) error {
	dst, err := b.span(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (b *Buffer) ReadU8(addr heapview.Address) (uint8, error) {
	s, err := b.span(addr, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (b *Buffer) ReadU32(addr heapview.Address) (uint32, error) {
	s, err := b.span(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (b *Buffer) ReadU64(addr heapview.Address) (uint64, error) {
	s, err := b.span(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (b *Buffer) WriteU8(addr heapview.Address, value uint8) error {
	s, err := b.span(addr, 1)
	if err != nil {
		return err
	}
	s[0] = value
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (b *Buffer) WriteU32(addr heapview.Address, value uint32) error {
	s, err := b.span(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s, value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (b *Buffer) WriteU64(addr heapview.Address, value uint64) error {
	s, err := b.span(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s, value)
	return nil
}
