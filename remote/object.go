package remote

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/internal/rawmem"
	"github.com/wippyai/heapview/metadata"
)

// Object is a possibly-null view of a foreign object. The zero value is a
// null handle. Equality is address equality.
type Object struct {
	heap *Heap
	addr heapview.Address
}

// IsNull reports whether the handle has no target.
func (o Object) IsNull() bool {
	return o.heap == nil || o.addr == 0
}

// Addr returns the foreign address, zero for a null handle.
func (o Object) Addr() heapview.Address {
	if o.heap == nil {
		return 0
	}
	return o.addr
}

// Heap returns the heap the handle belongs to.
func (o Object) Heap() *Heap {
	return o.heap
}

// Equal reports whether both handles address the same object.
func (o Object) Equal(other Object) bool {
	return o.Addr() == other.Addr()
}

func (o Object) String() string {
	if o.IsNull() {
		return "null"
	}
	if cls, err := o.TryClass(); err == nil {
		return fmt.Sprintf("%s@0x%x", cls, o.addr)
	}
	return fmt.Sprintf("0x%x", o.addr)
}

// TryClass resolves the object's class from its header.
func (o Object) TryClass() (*metadata.Class, error) {
	if o.IsNull() {
		return nil, errors.NullTarget(errors.PhaseResolve, nil)
	}
	return o.heap.classes.ClassOf(o.heap.mem, o.heap.layout, o.addr)
}

// Class resolves the object's class, nil when unresolvable.
func (o Object) Class() *metadata.Class {
	cls, err := o.TryClass()
	if err != nil {
		o.degrade(errors.PhaseResolve, Field{}, err)
		return nil
	}
	return cls
}

// Offset returns a handle positioned off bytes into this object. It is used
// for inline value-type data, which has no header of its own: only literal
// fields are meaningful on the result.
func (o Object) Offset(off uint32) Object {
	if o.IsNull() {
		return o
	}
	addr, ok := rawmem.Add(o.addr, uint64(off))
	if !ok {
		return o.heap.Null()
	}
	return Object{heap: o.heap, addr: addr}
}

// FieldOffset resolves f to a byte offset from the start of the object.
func (o Object) FieldOffset(f Field) (uint32, error) {
	if o.IsNull() {
		return 0, errors.NullTarget(errors.PhaseOffset, f.names)
	}
	if f.literal {
		return f.offset, nil
	}
	if len(f.names) == 0 {
		return 0, errors.InvalidInput(errors.PhaseOffset, "field has no names")
	}
	cls, err := o.TryClass()
	if err != nil {
		return 0, err
	}
	return o.heap.offsets.Lookup(cls, f.names)
}

func (o Object) fieldAddr(phase errors.Phase, f Field) (heapview.Address, error) {
	if o.IsNull() {
		return 0, errors.NullTarget(phase, f.names)
	}
	off, err := o.FieldOffset(f)
	if err != nil {
		return 0, err
	}
	return rawmem.Offset(phase, o.addr, uint64(off))
}

func (o Object) degrade(phase errors.Phase, f Field, err error) {
	log := Logger()
	if o.heap != nil {
		log = o.heap.log
	}
	if ce := log.Check(zap.DebugLevel, "degraded access"); ce != nil {
		ce.Write(
			zap.String("phase", string(phase)),
			zap.String("kind", string(errors.KindOf(err))),
			zap.Uint64("addr", o.Addr()),
			zap.Stringer("field", f),
			zap.Error(err),
		)
	}
}

// TryReadI32 reads a 32-bit signed integer.
func (o Object) TryReadI32(f Field) (int32, error) {
	addr, err := o.fieldAddr(errors.PhaseRead, f)
	if err != nil {
		return 0, err
	}
	return rawmem.ReadI32(o.heap.mem, addr)
}

// TryReadF32 reads a 32-bit float.
func (o Object) TryReadF32(f Field) (float32, error) {
	addr, err := o.fieldAddr(errors.PhaseRead, f)
	if err != nil {
		return 0, err
	}
	return rawmem.ReadF32(o.heap.mem, addr)
}

// TryReadBool reads a boolean byte.
func (o Object) TryReadBool(f Field) (bool, error) {
	addr, err := o.fieldAddr(errors.PhaseRead, f)
	if err != nil {
		return false, err
	}
	return rawmem.ReadBool(o.heap.mem, addr)
}

// TryReadPointer reads a pointer-sized reference.
func (o Object) TryReadPointer(f Field) (Object, error) {
	addr, err := o.fieldAddr(errors.PhaseRead, f)
	if err != nil {
		return o.nullOf(), err
	}
	p, err := rawmem.ReadPointer(o.heap.mem, addr, o.heap.layout.PointerWidth)
	if err != nil {
		return o.nullOf(), err
	}
	return Object{heap: o.heap, addr: p}, nil
}

func (o Object) nullOf() Object {
	return Object{heap: o.heap}
}

// ReadI32 reads a 32-bit signed integer, 0 on failure.
func (o Object) ReadI32(f Field) int32 {
	v, err := o.TryReadI32(f)
	if err != nil {
		o.degrade(errors.PhaseRead, f, err)
		return 0
	}
	return v
}

// ReadF32 reads a 32-bit float, 0 on failure.
func (o Object) ReadF32(f Field) float32 {
	v, err := o.TryReadF32(f)
	if err != nil {
		o.degrade(errors.PhaseRead, f, err)
		return 0
	}
	return v
}

// ReadBool reads a boolean byte, false on failure.
func (o Object) ReadBool(f Field) bool {
	v, err := o.TryReadBool(f)
	if err != nil {
		o.degrade(errors.PhaseRead, f, err)
		return false
	}
	return v
}

// ReadPointer reads a reference, a null handle on failure.
func (o Object) ReadPointer(f Field) Object {
	v, err := o.TryReadPointer(f)
	if err != nil {
		o.degrade(errors.PhaseRead, f, err)
		return o.nullOf()
	}
	return v
}

// TryRead reads a field of the given kind.
func (o Object) TryRead(f Field, k Kind) (Value, error) {
	switch k {
	case KindI32:
		v, err := o.TryReadI32(f)
		return I32(v), err
	case KindF32:
		v, err := o.TryReadF32(f)
		return F32(v), err
	case KindBool:
		v, err := o.TryReadBool(f)
		return Bool(v), err
	case KindPointer:
		v, err := o.TryReadPointer(f)
		return Pointer(v.Addr()), err
	default:
		return Value{}, errors.InvalidInput(errors.PhaseRead, fmt.Sprintf("invalid kind %d", k))
	}
}

// Read reads a field of the given kind, the kind's zero value on failure.
func (o Object) Read(f Field, k Kind) Value {
	v, err := o.TryRead(f, k)
	if err != nil {
		o.degrade(errors.PhaseRead, f, err)
		return Value{Kind: k}
	}
	return v
}

// TryWriteI32 writes a 32-bit signed integer.
func (o Object) TryWriteI32(f Field, v int32) error {
	addr, err := o.fieldAddr(errors.PhaseWrite, f)
	if err != nil {
		return err
	}
	return rawmem.WriteI32(o.heap.mem, addr, v)
}

// TryWriteF32 writes a 32-bit float.
func (o Object) TryWriteF32(f Field, v float32) error {
	addr, err := o.fieldAddr(errors.PhaseWrite, f)
	if err != nil {
		return err
	}
	return rawmem.WriteF32(o.heap.mem, addr, v)
}

// TryWriteBool writes a boolean byte.
func (o Object) TryWriteBool(f Field, v bool) error {
	addr, err := o.fieldAddr(errors.PhaseWrite, f)
	if err != nil {
		return err
	}
	return rawmem.WriteBool(o.heap.mem, addr, v)
}

// TryWritePointer writes a reference. A null target writes zero.
func (o Object) TryWritePointer(f Field, target Object) error {
	addr, err := o.fieldAddr(errors.PhaseWrite, f)
	if err != nil {
		return err
	}
	return rawmem.WritePointer(o.heap.mem, addr, target.Addr(), o.heap.layout.PointerWidth)
}

// TryWrite writes a tagged value.
func (o Object) TryWrite(f Field, v Value) error {
	switch v.Kind {
	case KindI32:
		return o.TryWriteI32(f, v.I32)
	case KindF32:
		return o.TryWriteF32(f, v.F32)
	case KindBool:
		return o.TryWriteBool(f, v.Bool)
	case KindPointer:
		return o.TryWritePointer(f, Object{heap: o.heap, addr: v.Ptr})
	default:
		return errors.InvalidInput(errors.PhaseWrite, fmt.Sprintf("invalid kind %d", v.Kind))
	}
}

func (o Object) wrote(f Field, err error) bool {
	if err != nil {
		o.degrade(errors.PhaseWrite, f, err)
		return false
	}
	return true
}

// WriteI32 writes a 32-bit signed integer and reports success.
func (o Object) WriteI32(f Field, v int32) bool {
	return o.wrote(f, o.TryWriteI32(f, v))
}

// WriteF32 writes a 32-bit float and reports success.
func (o Object) WriteF32(f Field, v float32) bool {
	return o.wrote(f, o.TryWriteF32(f, v))
}

// WriteBool writes a boolean byte and reports success.
func (o Object) WriteBool(f Field, v bool) bool {
	return o.wrote(f, o.TryWriteBool(f, v))
}

// WritePointer writes a reference and reports success.
func (o Object) WritePointer(f Field, target Object) bool {
	return o.wrote(f, o.TryWritePointer(f, target))
}

// Write writes a tagged value and reports success.
func (o Object) Write(f Field, v Value) bool {
	return o.wrote(f, o.TryWrite(f, v))
}
