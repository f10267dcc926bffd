package memory

import (
	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/internal/rawmem"
)

// Native returns a Memory over the current process's address space.
func Native() heapview.Memory {
	return rawmem.Native{}
}

// AddressOf returns the native address of buf's first byte.
// The caller must keep buf alive while the address is in use.
func AddressOf(buf []byte) heapview.Address {
	return rawmem.AddressOf(buf)
}
