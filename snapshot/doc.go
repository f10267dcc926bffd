// Package snapshot loads heap images: a schema dump of the foreign runtime's
// class tables plus the memory segments and named roots captured from it.
//
// A schema dump lists classes with their handle, base class, instance size,
// element class and fields:
//
//	dump_hash: 4f1c...
//	classes:
//	  - name: Game.Unit
//	    handle: 0x5000
//	    base: Game.Entity
//	    instance_size: 0x40
//	    fields:
//	      - {name: _hp, type: int, offset: 0x18}
//	enums:
//	  Game.State:
//	    values: {Idle: 0, Walk: 1}
//
// Tables serves a dump as a metadata.Runtime, so a heap image can be
// inspected without the foreign runtime being alive.
//
// A manifest ties a schema to memory:
//
//	layout: {pointer_width: 8}
//	schema: schema.yaml
//	segments:
//	  - {base: 0x10000, file: heap.bin}
//	  - {base: 0x20000, data: "01000000 02000000"}
//	roots:
//	  player: 0x10040
//
// With a guest section the image runs a WebAssembly build of the foreign
// runtime instead and reads its linear memory; segments are then written
// into that memory as patches.
//
// Diff compares two schema dumps and flags the changes that break code
// relying on fixed offsets or enum values.
package snapshot
