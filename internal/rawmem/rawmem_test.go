package rawmem

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"testing"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
)

// flatMemory maps data at address base.
type flatMemory struct {
	data  []byte
	base  heapview.Address
	panic bool
}

func (m *flatMemory) span(addr heapview.Address, n uint32) ([]byte, error) {
	if m.panic {
		panic("backend exploded")
	}
	if addr < m.base || addr-m.base+uint64(n) > uint64(len(m.data)) {
		return nil, fmt.Errorf("unmapped 0x%x", addr)
	}
	off := addr - m.base
	return m.data[off : off+uint64(n)], nil
}

func (m *flatMemory) Read(addr heapview.Address, n uint32) ([]byte, error) { return m.span(addr, n) }
func (m *flatMemory) Write(addr heapview.Address, d []byte) error {
	b, err := m.span(addr, uint32(len(d)))
	if err == nil {
		copy(b, d)
	}
	return err
}
func (m *flatMemory) ReadU8(addr heapview.Address) (uint8, error) {
	b, err := m.span(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
func (m *flatMemory) ReadU32(addr heapview.Address) (uint32, error) {
	b, err := m.span(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
func (m *flatMemory) ReadU64(addr heapview.Address) (uint64, error) {
	b, err := m.span(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
func (m *flatMemory) WriteU8(addr heapview.Address, v uint8) error { return m.Write(addr, []byte{v}) }
func (m *flatMemory) WriteU32(addr heapview.Address, v uint32) error {
	return m.Write(addr, binary.LittleEndian.AppendUint32(nil, v))
}
func (m *flatMemory) WriteU64(addr heapview.Address, v uint64) error {
	return m.Write(addr, binary.LittleEndian.AppendUint64(nil, v))
}

func TestAdd_Overflow(t *testing.T) {
	if _, ok := Add(math.MaxUint64-1, 2); ok {
		t.Error("expected overflow")
	}
	if got, ok := Add(0x1000, 0x10); !ok || got != 0x1010 {
		t.Errorf("Add = 0x%x, %v", got, ok)
	}
	if _, err := Elem(errors.PhaseRead, 0x1000, math.MaxUint64/2, 4); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected faulted_access for element overflow, got %v", err)
	}
	if got, err := Elem(errors.PhaseRead, 0x1000, 3, 24); err != nil || got != 0x1000+72 {
		t.Errorf("Elem = 0x%x, %v", got, err)
	}
}

func TestTypedRoundTrip(t *testing.T) {
	mem := &flatMemory{data: make([]byte, 64), base: 0x100}

	if err := WriteI32(mem, 0x100, -7); err != nil {
		t.Fatalf("WriteI32: %v", err)
	}
	if v, err := ReadI32(mem, 0x100); err != nil || v != -7 {
		t.Errorf("ReadI32 = %d, %v", v, err)
	}

	if err := WriteF32(mem, 0x104, 3.5); err != nil {
		t.Fatalf("WriteF32: %v", err)
	}
	if v, err := ReadF32(mem, 0x104); err != nil || v != 3.5 {
		t.Errorf("ReadF32 = %v, %v", v, err)
	}

	if err := WriteBool(mem, 0x108, true); err != nil {
		t.Fatalf("WriteBool: %v", err)
	}
	if v, err := ReadBool(mem, 0x108); err != nil || !v {
		t.Errorf("ReadBool = %v, %v", v, err)
	}

	for _, width := range []uint32{4, 8} {
		if err := WritePointer(mem, 0x110, 0xdeadbeef, width); err != nil {
			t.Fatalf("WritePointer(%d): %v", width, err)
		}
		if v, err := ReadPointer(mem, 0x110, width); err != nil || v != 0xdeadbeef {
			t.Errorf("ReadPointer(%d) = 0x%x, %v", width, v, err)
		}
	}
}

func TestFaults(t *testing.T) {
	mem := &flatMemory{data: make([]byte, 8), base: 0x100}

	if _, err := ReadI32(mem, 0x200); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected faulted_access for unmapped read, got %v", err)
	}
	if err := WriteBool(mem, 0x50, true); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected faulted_access for unmapped write, got %v", err)
	}
	if _, err := ReadPointer(nil, 0x100, 8); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected faulted_access for nil memory, got %v", err)
	}
	if _, err := ReadPointer(mem, 0x100, 3); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("expected invalid_input for bad width, got %v", err)
	}
	if err := WritePointer(mem, 0x100, 1<<40, 4); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("expected invalid_input for truncating pointer write, got %v", err)
	}

	mem.panic = true
	if _, err := ReadU32(mem, 0x100); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected panic converted to faulted_access, got %v", err)
	}
	if err := WriteU32(mem, 0x100, 1); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected panic converted to faulted_access, got %v", err)
	}
}

func TestNative(t *testing.T) {
	buf := make([]byte, 16)
	base := AddressOf(buf)
	var mem Native

	if err := WriteI32(mem, base, 1234); err != nil {
		t.Fatalf("WriteI32: %v", err)
	}
	if v, err := ReadI32(mem, base); err != nil || v != 1234 {
		t.Errorf("ReadI32 = %d, %v", v, err)
	}
	if binary.LittleEndian.Uint32(buf) != 1234 {
		t.Errorf("write did not land in buffer: %x", buf[:4])
	}
	if err := WritePointer(mem, base+8, 0x1122334455667788, 8); err != nil {
		t.Fatalf("WritePointer: %v", err)
	}
	if v, err := ReadPointer(mem, base+8, 8); err != nil || v != 0x1122334455667788 {
		t.Errorf("ReadPointer = 0x%x, %v", v, err)
	}
	runtime.KeepAlive(buf)

	if _, err := ReadI32(mem, 0); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected faulted_access for address zero, got %v", err)
	}
	if AddressOf(nil) != 0 {
		t.Error("AddressOf(nil) should be zero")
	}
}
