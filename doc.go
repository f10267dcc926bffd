// Package heapview provides access to objects living in a foreign managed
// runtime's heap, using only raw addresses and the runtime's own class
// metadata.
//
// No compiled bindings to the foreign types exist. Fields are located by
// name through the runtime's metadata tables, or by literal offset when the
// caller knows the layout out of band.
//
// # Architecture Overview
//
//	heapview/            Root package with Memory and Layout
//	├── memory/          Memory backends: byte segments, wazero guest memory
//	├── metadata/        Class metadata cache over the runtime's tables
//	├── offsets/         Field offset resolution with fallback names
//	├── remote/          Remote object handles with typed reads and writes
//	├── collections/     Array, list and hash-map views
//	├── snapshot/        Schema dumps, heap image manifests, schema diff
//	├── errors/          Structured error types
//	└── cmd/heapview/    Inspector CLI and interactive browser
//
// # Quick Start
//
//	img, err := snapshot.Open(ctx, "heap.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer img.Close(ctx)
//
//	heap := img.Heap()
//	player := heap.Object(img.Roots["player"])
//	hp := player.ReadI32(remote.Named("_hp", "hp"))
//
//	for k, v := range collections.MapOf(player.ReadPointer(remote.Named("_stats"))).All() {
//	    fmt.Println(k.Addr(), v.ReadF32(remote.At(16)))
//	}
//
// # Failure Model
//
// Reads and writes never panic and never return errors on the common path:
// a null handle, an unknown class, an unresolved field, an out-of-range
// index or a faulted memory access all degrade to a zero value, false, a
// null handle or an empty sequence. The Try variants return the same value
// together with an *errors.Error describing the failure.
//
// # Thread Safety
//
// Class and offset caches are safe for concurrent use. Nothing in this
// module synchronizes with the foreign runtime: a read racing a foreign
// write may observe a torn value. Before writing, callers must confirm that
// the subsystem owning the target object is quiescent.
package heapview
