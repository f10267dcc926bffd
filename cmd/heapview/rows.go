package main

import (
	"fmt"

	"github.com/wippyai/heapview/collections"
	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/remote"
	"github.com/wippyai/heapview/snapshot"
)

// maxRows bounds how many collection elements a view lists.
const maxRows = 64

type row struct {
	target remote.Object
	name   string
	typ    string
	value  string
	offset uint32
}

func (r row) followable() bool {
	return !r.target.IsNull()
}

// fieldRows reads every schema field of obj with the kind its type implies.
func fieldRows(img *snapshot.Image, obj remote.Object) []row {
	cls := obj.Class()
	if cls == nil {
		return nil
	}
	var rows []row
	for _, f := range img.Tables.Fields(cls.Handle) {
		r := row{name: f.Name, typ: f.Type, offset: f.Offset, value: "?"}
		if kind, ok := img.Tables.Kind(f); ok {
			v, err := obj.TryRead(remote.At(f.Offset), kind)
			switch {
			case err != nil:
				r.value = "<" + string(errors.KindOf(err)) + ">"
			case kind == remote.KindPointer:
				r.target = obj.Heap().Object(v.Ptr)
				r.value = r.target.String()
			default:
				r.value = v.String()
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// usable reports whether a collection view came back readable, possibly
// clamped to the element ceiling.
func usable(err error) bool {
	return err == nil || errors.IsKind(err, errors.KindOutOfBounds)
}

// elementRows lists the elements of a map, list or array object.
func elementRows(obj remote.Object) []row {
	var rows []row
	if m, err := collections.TryMapOf(obj); usable(err) {
		for _, e := range m.Entries() {
			if len(rows) == maxRows {
				break
			}
			rows = append(rows, row{
				name:   fmt.Sprintf("#%d %s", e.Index, e.Key),
				typ:    "entry",
				value:  e.Value.String(),
				target: e.Value,
			})
		}
		return rows
	}

	var items collections.Array
	if cls := obj.Class(); cls != nil && cls.IsArray() {
		items = collections.ArrayOf(obj)
		if cls.Element != nil && cls.Element.ValueType {
			for i, slot := range items.Slots() {
				if i == maxRows {
					break
				}
				rows = append(rows, row{
					name:  fmt.Sprintf("[%d]", i),
					typ:   "inline",
					value: fmt.Sprintf("inline @0x%x", slot.Addr()),
				})
			}
			return rows
		}
	} else if l, err := collections.TryListOf(obj); usable(err) {
		items = l.Items()
	}
	for i := range min(items.Len(), maxRows) {
		el := items.Get(i)
		rows = append(rows, row{
			name:   fmt.Sprintf("[%d]", i),
			typ:    "element",
			value:  el.String(),
			target: el,
		})
	}
	return rows
}
