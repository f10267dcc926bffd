package rawmem

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/wippyai/heapview"
)

// Native reads and writes the current process's memory directly. It is used
// when the inspecting code is loaded into the foreign runtime's process.
// Invalid addresses fault in hardware; guard turns those into errors.
type Native struct{}

func ptr(addr heapview.Address) unsafe.Pointer {
	return unsafe.Pointer(uintptr(addr)) //nolint:govet // foreign address, not a Go pointer
}

func (Native) bytes(addr heapview.Address, n uint32) ([]byte, error) {
	if addr == 0 {
		return nil, fmt.Errorf("read of address zero")
	}
	if uint64(uintptr(addr)) != addr {
		return nil, fmt.Errorf("address 0x%x exceeds native pointer width", addr)
	}
	return unsafe.Slice((*byte)(ptr(addr)), n), nil
}

// Read copies length bytes starting at addr.
func (n Native) Read(addr heapview.Address, length uint32) ([]byte, error) {
	src, err := n.bytes(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, src)
	return out, nil
}

// Write copies data to addr.
func (n Native) Write(addr heapview.Address, data []byte) error {
	dst, err := n.bytes(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// ReadU8 reads one byte.
func (n Native) ReadU8(addr heapview.Address) (uint8, error) {
	b, err := n.bytes(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (n Native) ReadU32(addr heapview.Address) (uint32, error) {
	b, err := n.bytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (n Native) ReadU64(addr heapview.Address) (uint64, error) {
	b, err := n.bytes(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteU8 writes one byte.
func (n Native) WriteU8(addr heapview.Address, value uint8) error {
	b, err := n.bytes(addr, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (n Native) WriteU32(addr heapview.Address, value uint32) error {
	b, err := n.bytes(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (n Native) WriteU64(addr heapview.Address, value uint64) error {
	b, err := n.bytes(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// AddressOf returns the native address of the first byte of buf.
func AddressOf(buf []byte) heapview.Address {
	if len(buf) == 0 {
		return 0
	}
	return heapview.Address(uintptr(unsafe.Pointer(&buf[0])))
}
