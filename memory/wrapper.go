package memory

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/heapview"
)

// WrapMemory wraps a wazero api.Memory so that linear offset 0 appears at base.
func WrapMemory(mem api.Memory, base heapview.Address) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem, Base: base}
}

// Wrapper adapts wazero api.Memory to heapview.Memory.
type Wrapper struct {
	Mem  api.Memory
	Base heapview.Address
}

var _ heapview.Memory = (*Wrapper)(nil)

func (m *Wrapper) linear(addr heapview.Address, length uint32) (uint32, error) {
	if addr < m.Base {
		return 0, fmt.Errorf("address 0x%x below guest base 0x%x", addr, m.Base)
	}
	off := addr - m.Base
	if off > math.MaxUint32 || off+uint64(length) > math.MaxUint32+1 {
		return 0, fmt.Errorf("address 0x%x outside 32-bit guest memory", addr)
	}
	return uint32(off), nil
}

// Size returns the end of guest memory in the foreign address space.
func (m *Wrapper) Size() uint64 {
	return m.Base + uint64(m.Mem.Size())
}

// Read reads bytes from memory.
func (m *Wrapper) Read(addr heapview.Address, length uint32) ([]byte, error) {
	off, err := m.linear(addr, length)
	if err != nil {
		return nil, err
	}
	data, ok := m.Mem.Read(off, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: addr=0x%x, length=%d", addr, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write writes bytes to memory.
func (m *Wrapper) Write(addr heapview.Address, data []byte) error {
	off, err := m.linear(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	if !m.Mem.Write(off, data) {
		return fmt.Errorf("memory write out of bounds: addr=0x%x, length=%d", addr, len(data))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Wrapper) ReadU8(addr heapview.Address) (uint8, error) {
	off, err := m.linear(addr, 1)
	if err != nil {
		return 0, err
	}
	v, ok := m.Mem.ReadByte(off)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: addr=0x%x", addr)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(addr heapview.Address) (uint32, error) {
	off, err := m.linear(addr, 4)
	if err != nil {
		return 0, err
	}
	v, ok := m.Mem.ReadUint32Le(off)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: addr=0x%x", addr)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Wrapper) ReadU64(addr heapview.Address) (uint64, error) {
	off, err := m.linear(addr, 8)
	if err != nil {
		return 0, err
	}
	v, ok := m.Mem.ReadUint64Le(off)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: addr=0x%x", addr)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Wrapper) WriteU8(addr heapview.Address, value uint8) error {
	off, err := m.linear(addr, 1)
	if err != nil {
		return err
	}
	if !m.Mem.WriteByte(off, value) {
		return fmt.Errorf("memory write out of bounds: addr=0x%x", addr)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(addr heapview.Address, value uint32) error {
	off, err := m.linear(addr, 4)
	if err != nil {
		return err
	}
	if !m.Mem.WriteUint32Le(off, value) {
		return fmt.Errorf("memory write out of bounds: addr=0x%x", addr)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Wrapper) WriteU64(addr heapview.Address, value uint64) error {
	off, err := m.linear(addr, 8)
	if err != nil {
		return err
	}
	if !m.Mem.WriteUint64Le(off, value) {
		return fmt.Errorf("memory write out of bounds: addr=0x%x", addr)
	}
	return nil
}
