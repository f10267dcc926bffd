// Package remote provides handles to objects in a foreign heap.
//
// A Heap binds a foreign address space to the runtime's metadata tables and
// owns the class and offset caches for that runtime instance. Object is a
// non-owning, possibly-null view of one foreign object: it holds an address
// and nothing else, so the foreign runtime may free or move the object at any
// time. Do not keep an Object across a period where the owning subsystem may
// be collecting or rewriting it.
//
// Fields are selected by name (resolved through the class metadata, with
// fallback names) or by literal offset:
//
//	hp := unit.ReadI32(remote.Named("_hp", "hp"))
//	flags := unit.ReadI32(remote.At(0x2c))
//
// Every Read and Write degrades to a zero value, false or a null Object when
// the handle is null, the class or field cannot be resolved, or the memory
// access faults. The Try variants return the same result together with an
// *errors.Error.
//
// # Writes
//
// Writes are not synchronized with the foreign runtime. Before writing,
// confirm through the owning subsystem's status that it is in a quiescent
// window (not mid-evaluation). This package cannot detect concurrent foreign
// mutation.
package remote
