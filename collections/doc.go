// Package collections reads the foreign runtime's built-in containers from
// raw memory: arrays, lists (count plus backing array) and open-addressing
// hash maps.
//
// Views are transient. Build a fresh view for each enumeration; a view holds
// the backing pointer, stride and declared count it was built with and
// nothing else.
//
// # Hash Maps
//
// The map entries array holds slots laid out as
//
//	[int32 hashCode][int32 next][key][value]
//
// A negative hashCode marks a deleted slot. Map walks physical slots
// 0..count and skips deleted ones, so the live count is count-freeCount.
// Enumeration follows physical slot order, which is not insertion order and
// is not stable across foreign runtime versions.
//
// Declared counts above Layout.MaxElements are treated as misreads and cap
// the walk. A fault part way through ends the walk with whatever was
// already produced.
package collections
