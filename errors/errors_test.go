package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseOffset,
				Kind:   KindUnresolvedField,
				Path:   []string{"_entries", "entries"},
				Class:  "Dictionary",
				Addr:   0x1000,
				Detail: "no candidate",
			},
			contains: []string{"[offset]", "unresolved_field", "_entries.entries", "Dictionary", "@0x1000", "no candidate"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[read]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRead,
				Kind:   KindFaultedAccess,
				Detail: "unmapped",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[read]", "faulted_access", "unmapped", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Faulted(PhaseRead, 0x10, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Phase: PhaseRead, Kind: KindNullTarget, Path: []string{"foo"}}

	if !errors.Is(err, &Error{Phase: PhaseRead, Kind: KindNullTarget}) {
		t.Error("expected match on same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseWrite, Kind: KindNullTarget}) {
		t.Error("expected no match on different phase")
	}
	if errors.Is(err, &Error{Phase: PhaseRead, Kind: KindOutOfBounds}) {
		t.Error("expected no match on different kind")
	}
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", UnresolvedType("Game.Unit"))

	if !IsKind(wrapped, KindUnresolvedType) {
		t.Error("expected IsKind to see through wrapping")
	}
	if IsKind(wrapped, KindUnresolvedField) {
		t.Error("unexpected kind match")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for plain error")
	}
	if IsKind(nil, KindNullTarget) {
		t.Error("nil error has no kind")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseEnumerate, KindOutOfBounds).
		Path("entries").
		Class("Dictionary").
		Addr(0x2000).
		Value(42).
		Detail("slot %d", 42).
		Cause(errors.New("x")).
		Build()

	if err.Phase != PhaseEnumerate || err.Kind != KindOutOfBounds {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != "slot 42" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Value != 42 || err.Addr != 0x2000 || err.Class != "Dictionary" {
		t.Errorf("unexpected fields: %+v", err)
	}
	if len(err.Path) != 1 || err.Path[0] != "entries" {
		t.Errorf("Path = %v", err.Path)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{NullTarget(PhaseRead, nil), KindNullTarget},
		{UnresolvedType("X"), KindUnresolvedType},
		{UnresolvedHandle(0x10), KindUnresolvedType},
		{UnresolvedField("X", []string{"a"}), KindUnresolvedField},
		{OutOfBounds(PhaseRead, nil, 5, 3), KindOutOfBounds},
		{CeilingExceeded(PhaseEnumerate, 1 << 20, 10000), KindOutOfBounds},
		{Faulted(PhaseWrite, 0, nil), KindFaultedAccess},
		{InvalidData(PhaseParse, nil, "bad"), KindInvalidData},
		{InvalidInput(PhaseLoad, "bad"), KindInvalidInput},
		{NotFound(PhaseLoad, "root", "player"), KindNotFound},
		{Load("read", nil), KindInvalidData},
		{ParseFailed("schema", nil), KindInvalidData},
	}
	for _, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("%s: kind = %s, want %s", tt.err.Error(), tt.err.Kind, tt.kind)
		}
		if tt.err.Error() == "" {
			t.Error("empty message")
		}
	}
}
