package heaptest

import (
	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/metadata"
)

// Naming selects the field names used for collection internals.
type Naming int

const (
	// Underscored uses _items, _size, _entries, _count, _freeCount.
	Underscored Naming = iota
	// Plain uses items, size, entries, count, freeCount.
	Plain
)

func (n Naming) name(base string) string {
	if n == Underscored {
		return "_" + base
	}
	return base
}

// ObjectArrayClass returns the handle of System.Object[].
func (h *Heap) ObjectArrayClass() metadata.Handle {
	if c, ok := h.RT.names[ObjectArray]; ok {
		return c
	}
	obj, ok := h.RT.names[ObjectClass]
	if !ok {
		obj = h.DefineClass(ObjectClass, h.Layout.ObjectHeader, nil)
	}
	return h.DefineArray(ObjectArray, obj)
}

// NewObjectArray allocates a reference array holding elems.
func (h *Heap) NewObjectArray(elems []heapview.Address) heapview.Address {
	p := h.P()
	arr := h.NewArray(h.ObjectArrayClass(), uint32(len(elems)), p)
	for i, e := range elems {
		h.PutPtr(arr, h.Layout.ArrayHeader+uint32(i)*p, e)
	}
	return arr
}

// ListClassHandle returns the list class for naming n.
func (h *Heap) ListClassHandle(n Naming) metadata.Handle {
	name := ListClass
	if n == Plain {
		name += "/plain"
	}
	if c, ok := h.RT.names[name]; ok {
		return c
	}
	p := h.P()
	return h.DefineClass(name, 3*p+8, map[string]uint32{
		n.name("items"):   2 * p,
		n.name("size"):    3 * p,
		n.name("version"): 3*p + 4,
	})
}

// NewList allocates a list whose backing array has capacity cap(elems) or
// len(elems), whichever is larger, and whose size is len(elems).
func (h *Heap) NewList(n Naming, elems []heapview.Address, capacity int) heapview.Address {
	if capacity < len(elems) {
		capacity = len(elems)
	}
	backing := make([]heapview.Address, capacity)
	copy(backing, elems)
	items := h.NewObjectArray(backing)

	cls := h.ListClassHandle(n)
	list := h.New(cls)
	p := h.P()
	h.PutPtr(list, 2*p, items)
	h.PutI32(list, 3*p, int32(len(elems)))
	return list
}

// Slot is one physical dictionary entry.
type Slot struct {
	Key   heapview.Address
	Value heapview.Address
	Hash  int32
	Next  int32
}

// DictOptions controls how NewDictionary lays out the map.
type DictOptions struct {
	Naming Naming
	// FreeCount is written to the freeCount field unless NoFreeCount is set.
	FreeCount   int32
	NoFreeCount bool
	// NoEntryClass leaves the entries array without a resolvable element
	// class, forcing the structural stride.
	NoEntryClass bool
	// Count overrides the raw count; otherwise len(slots).
	Count *int32
}

// EntryStride is the canonical [hash][next][key][value] slot size.
func (h *Heap) EntryStride() uint32 {
	return 8 + 2*h.P()
}

// DictionaryClassHandle returns the dictionary class for opts.
func (h *Heap) DictionaryClassHandle(opts DictOptions) metadata.Handle {
	name := DictionaryClass
	if opts.Naming == Plain {
		name += "/plain"
	}
	if opts.NoFreeCount {
		name += "/nofree"
	}
	if c, ok := h.RT.names[name]; ok {
		return c
	}
	p := h.P()
	fields := map[string]uint32{
		opts.Naming.name("buckets"):  2 * p,
		opts.Naming.name("entries"):  3 * p,
		opts.Naming.name("count"):    4 * p,
		opts.Naming.name("freeList"): 4*p + 4,
		opts.Naming.name("version"):  4*p + 12,
	}
	if !opts.NoFreeCount {
		fields[opts.Naming.name("freeCount")] = 4*p + 8
	}
	return h.DefineClass(name, 4*p+16, fields)
}

// EntryArrayClassHandle returns the entries array class, optionally with a
// resolvable element class.
func (h *Heap) EntryArrayClassHandle(withElement bool) metadata.Handle {
	if !withElement {
		name := EntryArrayClass + "/opaque"
		if c, ok := h.RT.names[name]; ok {
			return c
		}
		return h.Define(ClassDef{Name: name, Size: h.Layout.ArrayHeader})
	}
	if c, ok := h.RT.names[EntryArrayClass]; ok {
		return c
	}
	entry := h.Define(ClassDef{
		Name:      EntryClass,
		Size:      h.Layout.ObjectHeader + h.EntryStride(),
		ValueType: true,
	})
	return h.DefineArray(EntryArrayClass, entry)
}

// NewDictionary allocates a dictionary whose entries array holds slots in
// physical order.
func (h *Heap) NewDictionary(slots []Slot, opts DictOptions) heapview.Address {
	p := h.P()
	stride := h.EntryStride()
	arrCls := h.EntryArrayClassHandle(!opts.NoEntryClass)
	entries := h.NewArray(arrCls, uint32(len(slots)), stride)
	for i, s := range slots {
		base := h.Layout.ArrayHeader + uint32(i)*stride
		h.PutI32(entries, base, s.Hash)
		h.PutI32(entries, base+4, s.Next)
		h.PutPtr(entries, base+8, s.Key)
		h.PutPtr(entries, base+8+p, s.Value)
	}

	dict := h.New(h.DictionaryClassHandle(opts))
	h.PutPtr(dict, 3*p, entries)
	count := int32(len(slots))
	if opts.Count != nil {
		count = *opts.Count
	}
	h.PutI32(dict, 4*p, count)
	h.PutI32(dict, 4*p+4, -1)
	if !opts.NoFreeCount {
		h.PutI32(dict, 4*p+8, opts.FreeCount)
	}
	return dict
}
