package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve   Phase = "resolve"   // class metadata lookup
	PhaseOffset    Phase = "offset"    // field offset lookup
	PhaseRead      Phase = "read"      // foreign memory read
	PhaseWrite     Phase = "write"     // foreign memory write
	PhaseEnumerate Phase = "enumerate" // collection walk
	PhaseLoad      Phase = "load"      // heap image loading
	PhaseParse     Phase = "parse"     // schema/manifest parsing
	PhaseDiff      Phase = "diff"      // schema comparison
)

// Kind categorizes the error
type Kind string

const (
	KindNullTarget      Kind = "null_target"
	KindUnresolvedType  Kind = "unresolved_type"
	KindUnresolvedField Kind = "unresolved_field"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindFaultedAccess   Kind = "faulted_access"
	KindInvalidData     Kind = "invalid_data"
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Detail string
	Path   []string
	Addr   uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Class != "" {
		b.WriteString(" in ")
		b.WriteString(e.Class)
	}

	if e.Addr != 0 {
		fmt.Fprintf(&b, " @0x%x", e.Addr)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind, regardless of phase.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the foreign class name
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
	return b
}

// Addr sets the foreign address involved
func (b *Builder) Addr(addr uint64) *Builder {
	b.err.Addr = addr
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the accessor taxonomy

// NullTarget creates an error for an operation attempted on a null handle
func NullTarget(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullTarget,
		Path:   path,
		Detail: "null handle",
	}
}

// UnresolvedType creates an error for a failed class lookup by name
func UnresolvedType(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnresolvedType,
		Detail: fmt.Sprintf("class %q not found", name),
		Value:  name,
	}
}

// UnresolvedHandle creates an error for a class pointer the runtime does not know
func UnresolvedHandle(handle uint64) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnresolvedType,
		Detail: fmt.Sprintf("class handle 0x%x not found", handle),
		Value:  handle,
	}
}

// UnresolvedField creates an error when no candidate field name resolves
func UnresolvedField(class string, names []string) *Error {
	return &Error{
		Phase:  PhaseOffset,
		Kind:   KindUnresolvedField,
		Class:  class,
		Path:   names,
		Detail: fmt.Sprintf("none of %d candidate names resolved", len(names)),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// CeilingExceeded creates an out of bounds error for an implausible declared count
func CeilingExceeded(phase Phase, count uint64, ceiling uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("declared count %d exceeds ceiling %d", count, ceiling),
		Value:  count,
	}
}

// Faulted wraps a failed memory access
func Faulted(phase Phase, addr uint64, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFaultedAccess,
		Addr:   addr,
		Detail: "memory access faulted",
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a heap image loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
