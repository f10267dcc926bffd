package collections

import (
	"iter"

	"go.uber.org/zap"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/internal/rawmem"
	"github.com/wippyai/heapview/offsets"
	"github.com/wippyai/heapview/remote"
)

var (
	mapEntries   = remote.Aliases(offsets.Entries)
	mapCount     = remote.Aliases(offsets.Count)
	mapFreeCount = remote.Aliases(offsets.FreeCount)
)

// Entry is one live hash-map slot.
type Entry struct {
	// Slot addresses the start of the slot; read inline keys and values
	// with literal offsets (key at 8, value at 8+pointer width).
	Slot  remote.Object
	Key   remote.Object
	Value remote.Object
	Index int
	Hash  int32
}

// Map is a view over an open-addressing hash map.
type Map struct {
	storage remote.Object
	layout  heapview.Layout
	stride  uint32
	slots   uint32
	count   int32
	free    int32
}

// MapOf builds a map view, empty when the map cannot be read. A count above
// the ceiling is clamped.
func MapOf(m remote.Object) Map {
	v, err := TryMapOf(m)
	if err != nil && !clamped(err) {
		return Map{storage: nullOf(m)}
	}
	return v
}

// TryMapOf is MapOf with the failure reason. When the declared count exceeds
// the ceiling it returns the clamped view together with an out_of_bounds
// error.
func TryMapOf(m remote.Object) (Map, error) {
	if m.IsNull() {
		return Map{}, errors.NullTarget(errors.PhaseEnumerate, nil)
	}
	layout := m.Heap().Layout()

	entries, err := m.TryReadPointer(mapEntries)
	if err != nil {
		return Map{}, err
	}
	count, err := m.TryReadI32(mapCount)
	if err != nil {
		return Map{}, err
	}
	free, err := m.TryReadI32(mapFreeCount)
	if err != nil {
		free = 0
	}
	if limit := max(count, 0); free < 0 || free > limit {
		m.Heap().Logger().Warn("map free count out of range",
			zap.Uint64("addr", m.Addr()),
			zap.Int32("count", count),
			zap.Int32("free", free))
		free = min(max(free, 0), limit)
	}

	if entries.IsNull() {
		if count > 0 {
			return Map{}, errors.InvalidData(errors.PhaseEnumerate, mapEntries.Names(), "count set but entries array is null")
		}
		return Map{storage: nullOf(m), layout: layout}, nil
	}

	var ceiling error
	slots := uint32(0)
	if count > 0 {
		slots = uint32(count)
	}
	if slots > layout.MaxElements {
		m.Heap().Logger().Warn("map count exceeds ceiling",
			zap.Uint64("addr", m.Addr()),
			zap.Int32("count", count),
			zap.Uint32("ceiling", layout.MaxElements))
		ceiling = errors.CeilingExceeded(errors.PhaseEnumerate, uint64(slots), layout.MaxElements)
		slots = layout.MaxElements
	}
	if n, err := entries.TryReadPointer(remote.At(layout.ArrayLengthOffset)); err == nil && n.Addr() < uint64(slots) {
		slots = uint32(n.Addr())
	}

	return Map{
		storage: entries.Offset(layout.ArrayHeader),
		layout:  layout,
		stride:  EntryStride(entries),
		slots:   slots,
		count:   count,
		free:    free,
	}, ceiling
}

// EntryStride returns the slot size of an entries array: the element class's
// instance size minus two pointer widths when known, otherwise the canonical
// 8 + 2*pointer width.
func EntryStride(entries remote.Object) uint32 {
	if entries.IsNull() {
		return 0
	}
	layout := entries.Heap().Layout()
	header := 2 * layout.PointerWidth
	if cls, err := entries.TryClass(); err == nil && cls.Element != nil {
		if el := cls.Element; el.HasSize && el.InstanceSize > header {
			return el.InstanceSize - header
		}
	}
	return layout.FallbackEntryStride()
}

// Count returns the number of live entries: count - freeCount.
func (m Map) Count() int {
	live := m.count - m.free
	if live < 0 || m.count <= 0 {
		return 0
	}
	if uint32(live) > m.layout.MaxElements {
		return int(m.layout.MaxElements)
	}
	return int(live)
}

// RawCount returns the declared physical slot count.
func (m Map) RawCount() int {
	if m.count < 0 {
		return 0
	}
	return int(m.count)
}

// FreeCount returns the number of deleted, unreclaimed slots, clamped to
// [0, RawCount()].
func (m Map) FreeCount() int {
	return int(m.free)
}

// Stride returns the slot size in bytes.
func (m Map) Stride() uint32 {
	return m.stride
}

// Entries walks the slots and returns the live entries in slot order.
func (m Map) Entries() []Entry {
	out := make([]Entry, 0, m.Count())
	m.walk(func(e Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// All yields live key/value pairs in physical slot order.
func (m Map) All() iter.Seq2[remote.Object, remote.Object] {
	return func(yield func(remote.Object, remote.Object) bool) {
		m.walk(func(e Entry) bool {
			return yield(e.Key, e.Value)
		})
	}
}

// Lookup returns the value stored under key, comparing keys by address.
func (m Map) Lookup(key remote.Object) (remote.Object, bool) {
	var found remote.Object
	ok := false
	m.walk(func(e Entry) bool {
		if e.Key.Equal(key) {
			found, ok = e.Value, true
			return false
		}
		return true
	})
	return found, ok
}

// walk visits live slots in order and stops once Count() of them were seen.
func (m Map) walk(visit func(Entry) bool) {
	if m.storage.IsNull() || m.stride == 0 {
		return
	}
	live := m.Count()
	if live <= 0 {
		return
	}
	keyOff := uint32(8)
	valueOff := keyOff + m.layout.PointerWidth

	for i := uint32(0); i < m.slots && live > 0; i++ {
		addr, err := rawmem.Elem(errors.PhaseEnumerate, m.storage.Addr(), uint64(i), uint64(m.stride))
		if err != nil {
			return
		}
		slot := m.storage.Heap().Object(addr)

		hash, err := slot.TryReadI32(remote.At(0))
		if err != nil {
			return
		}
		if hash < 0 {
			continue
		}
		key, err := slot.TryReadPointer(remote.At(keyOff))
		if err != nil {
			return
		}
		value, err := slot.TryReadPointer(remote.At(valueOff))
		if err != nil {
			return
		}
		if !visit(Entry{Slot: slot, Key: key, Value: value, Index: int(i), Hash: hash}) {
			return
		}
		live--
	}
}

// CountOf returns the live element count of a map, list or array object,
// and 0 for anything else.
func CountOf(o remote.Object) int {
	cls, err := o.TryClass()
	if err != nil {
		return 0
	}
	if _, err := o.FieldOffset(mapEntries); err == nil {
		return MapOf(o).Count()
	}
	if _, err := o.FieldOffset(listItems); err == nil {
		return ListOf(o).Count()
	}
	if cls.IsArray() {
		return ArrayOf(o).Len()
	}
	return 0
}
