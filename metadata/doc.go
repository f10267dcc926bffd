// Package metadata resolves and caches foreign class descriptors.
//
// The foreign runtime publishes class metadata tables (names, instance
// sizes, element classes, field offsets). Runtime abstracts those tables.
// Cache memoizes each class the first time it is resolved, by name or by the
// class pointer stored in an object's header, and returns the identical
// *Class on every later lookup without consulting the Runtime again.
//
// A resolved Class is valid for the lifetime of the foreign runtime
// instance. Reset is the single invalidation point and must be called when
// the foreign runtime reloads or changes version.
package metadata
