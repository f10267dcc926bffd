package collections

import (
	"iter"

	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/offsets"
	"github.com/wippyai/heapview/remote"
)

var (
	listCount = remote.Aliases(append(append([]string{}, offsets.Size...), offsets.Count...))
	listItems = remote.Aliases(offsets.Items)
)

// List is a view over a count-plus-backing-array list.
type List struct {
	items Array
}

// ListOf builds a list view, empty when the list cannot be read.
func ListOf(list remote.Object) List {
	l, err := TryListOf(list)
	if err != nil && !clamped(err) {
		return List{items: Array{data: nullOf(list)}}
	}
	return l
}

// TryListOf is ListOf with the failure reason. A backing array longer than
// the ceiling yields the clamped view together with an out_of_bounds error.
func TryListOf(list remote.Object) (List, error) {
	if list.IsNull() {
		return List{}, errors.NullTarget(errors.PhaseEnumerate, nil)
	}
	count, err := list.TryReadI32(listCount)
	if err != nil {
		return List{}, err
	}
	items, err := list.TryReadPointer(listItems)
	if err != nil {
		return List{}, err
	}
	if count <= 0 || items.IsNull() {
		return List{items: Array{data: nullOf(list)}}, nil
	}

	backing, err := TryArrayOf(items)
	if err != nil && !clamped(err) {
		return List{}, err
	}
	n := uint32(count)
	if capacity := uint32(backing.Len()); n > capacity {
		n = capacity
	}
	return List{items: NewArray(backing.data, backing.stride, n)}, err
}

// Count returns the number of live elements.
func (l List) Count() int {
	return l.items.Len()
}

// Get returns element i, a null handle when out of range.
func (l List) Get(i int) remote.Object {
	return l.items.Get(i)
}

// TryGet returns element i with the failure reason.
func (l List) TryGet(i int) (remote.Object, error) {
	return l.items.TryGet(i)
}

// Items returns the element view over [0, Count()).
func (l List) Items() Array {
	return l.items
}

// All yields elements 0..Count()-1.
func (l List) All() iter.Seq[remote.Object] {
	return l.items.All()
}
