// Package rawmem is the only place that computes foreign addresses and
// decodes raw bytes. Every access goes through guard, which converts backend
// errors and panics (including hardware faults on native memory) into
// *errors.Error values of kind faulted_access.
package rawmem

import (
	"fmt"
	"math"
	"runtime/debug"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
)

// Add returns base+off, failing on wraparound.
func Add(base heapview.Address, off uint64) (heapview.Address, bool) {
	sum := base + off
	if sum < base {
		return 0, false
	}
	return sum, true
}

// Offset returns base+off or a faulted_access error on wraparound.
func Offset(phase errors.Phase, base heapview.Address, off uint64) (heapview.Address, error) {
	addr, ok := Add(base, off)
	if !ok {
		return 0, errors.Faulted(phase, base, fmt.Errorf("offset 0x%x overflows address space", off))
	}
	return addr, nil
}

// Elem returns base + index*stride, checking for overflow.
func Elem(phase errors.Phase, base heapview.Address, index, stride uint64) (heapview.Address, error) {
	if stride != 0 && index > math.MaxUint64/stride {
		return 0, errors.Faulted(phase, base, fmt.Errorf("element %d with stride %d overflows", index, stride))
	}
	return Offset(phase, base, index*stride)
}

func guard(phase errors.Phase, mem heapview.Memory, addr heapview.Address, err *error) func() {
	if mem == nil {
		*err = errors.Faulted(phase, addr, fmt.Errorf("no memory attached"))
		return func() {}
	}
	old := debug.SetPanicOnFault(true)
	return func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			*err = errors.Faulted(phase, addr, fmt.Errorf("panic: %v", r))
		}
	}
}

func fault(phase errors.Phase, addr heapview.Address, cause error) error {
	return errors.Faulted(phase, addr, cause)
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func ReadU32(mem heapview.Memory, addr heapview.Address) (v uint32, err error) {
	defer guard(errors.PhaseRead, mem, addr, &err)()
	if err != nil {
		return 0, err
	}
	v, cause := mem.ReadU32(addr)
	if cause != nil {
		return 0, fault(errors.PhaseRead, addr, cause)
	}
	return v, nil
}

// ReadI32 reads a signed 32-bit value.
func ReadI32(mem heapview.Memory, addr heapview.Address) (int32, error) {
	v, err := ReadU32(mem, addr)
	return int32(v), err
}

// ReadF32 reads an IEEE-754 single.
func ReadF32(mem heapview.Memory, addr heapview.Address) (float32, error) {
	v, err := ReadU32(mem, addr)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadBool reads a boolean byte; any non-zero value is true.
func ReadBool(mem heapview.Memory, addr heapview.Address) (v bool, err error) {
	defer guard(errors.PhaseRead, mem, addr, &err)()
	if err != nil {
		return false, err
	}
	b, cause := mem.ReadU8(addr)
	if cause != nil {
		return false, fault(errors.PhaseRead, addr, cause)
	}
	return b != 0, nil
}

// ReadPointer reads a pointer-sized value of the given width.
func ReadPointer(mem heapview.Memory, addr heapview.Address, width uint32) (v heapview.Address, err error) {
	defer guard(errors.PhaseRead, mem, addr, &err)()
	if err != nil {
		return 0, err
	}
	switch width {
	case 4:
		p, cause := mem.ReadU32(addr)
		if cause != nil {
			return 0, fault(errors.PhaseRead, addr, cause)
		}
		return heapview.Address(p), nil
	case 8:
		p, cause := mem.ReadU64(addr)
		if cause != nil {
			return 0, fault(errors.PhaseRead, addr, cause)
		}
		return p, nil
	default:
		return 0, errors.InvalidInput(errors.PhaseRead, fmt.Sprintf("pointer width %d", width))
	}
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func WriteU32(mem heapview.Memory, addr heapview.Address, value uint32) (err error) {
	defer guard(errors.PhaseWrite, mem, addr, &err)()
	if err != nil {
		return err
	}
	if cause := mem.WriteU32(addr, value); cause != nil {
		return fault(errors.PhaseWrite, addr, cause)
	}
	return nil
}

// WriteI32 writes a signed 32-bit value.
func WriteI32(mem heapview.Memory, addr heapview.Address, value int32) error {
	return WriteU32(mem, addr, uint32(value))
}

// WriteF32 writes an IEEE-754 single.
func WriteF32(mem heapview.Memory, addr heapview.Address, value float32) error {
	return WriteU32(mem, addr, math.Float32bits(value))
}

// WriteBool writes a boolean byte.
func WriteBool(mem heapview.Memory, addr heapview.Address, value bool) (err error) {
	defer guard(errors.PhaseWrite, mem, addr, &err)()
	if err != nil {
		return err
	}
	var b uint8
	if value {
		b = 1
	}
	if cause := mem.WriteU8(addr, b); cause != nil {
		return fault(errors.PhaseWrite, addr, cause)
	}
	return nil
}

// WritePointer writes a pointer-sized value of the given width.
func WritePointer(mem heapview.Memory, addr heapview.Address, value heapview.Address, width uint32) (err error) {
	defer guard(errors.PhaseWrite, mem, addr, &err)()
	if err != nil {
		return err
	}
	switch width {
	case 4:
		if value > math.MaxUint32 {
			return errors.InvalidInput(errors.PhaseWrite, fmt.Sprintf("address 0x%x does not fit 4 bytes", value))
		}
		if cause := mem.WriteU32(addr, uint32(value)); cause != nil {
			return fault(errors.PhaseWrite, addr, cause)
		}
	case 8:
		if cause := mem.WriteU64(addr, value); cause != nil {
			return fault(errors.PhaseWrite, addr, cause)
		}
	default:
		return errors.InvalidInput(errors.PhaseWrite, fmt.Sprintf("pointer width %d", width))
	}
	return nil
}
