// Package errors provides structured error types for the heapview module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The accessor taxonomy is KindNullTarget, KindUnresolvedType, KindUnresolvedField,
// KindOutOfBounds and KindFaultedAccess. Core operations recover from all of them
// locally and return sentinels; the errors surface only through the Try variants
// so failures stay inspectable.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRead, errors.KindFaultedAccess).
//		Path("_entries").
//		Class("System.Collections.Generic.Dictionary").
//		Addr(0x7f001000).
//		Detail("segment not mapped").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnresolvedField("Game.Unit", []string{"_hp", "hp"})
//	err := errors.OutOfBounds(errors.PhaseRead, nil, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on kind alone.
package errors
