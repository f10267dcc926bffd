package remote

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/heapview"
)

// Field selects an instance field by name (with fallbacks) or by literal
// byte offset from the start of the object.
type Field struct {
	names   []string
	offset  uint32
	literal bool
}

// Named selects a field by name, trying fallbacks in order.
func Named(name string, fallbacks ...string) Field {
	return Field{names: append([]string{name}, fallbacks...)}
}

// Aliases selects a field by an alias set, primary name first.
func Aliases(names []string) Field {
	return Field{names: names}
}

// At selects a literal byte offset.
func At(offset uint32) Field {
	return Field{offset: offset, literal: true}
}

// ParseField parses "0x18", "24" or "name|fallback|..." into a Field.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Field{}, fmt.Errorf("empty field")
	}
	if s[0] >= '0' && s[0] <= '9' {
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return Field{}, fmt.Errorf("field offset %q: %w", s, err)
		}
		return At(uint32(v)), nil
	}
	return Aliases(strings.Split(s, "|")), nil
}

// IsLiteral reports whether the field is a literal offset.
func (f Field) IsLiteral() bool {
	return f.literal
}

// Names returns the candidate names, primary first.
func (f Field) Names() []string {
	return f.names
}

func (f Field) String() string {
	if f.literal {
		return fmt.Sprintf("+0x%x", f.offset)
	}
	return strings.Join(f.names, "|")
}

// Kind is the closed set of accessible field kinds.
type Kind uint8

const (
	KindI32 Kind = iota + 1
	KindF32
	KindBool
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindF32:
		return "f32"
	case KindBool:
		return "bool"
	case KindPointer:
		return "ptr"
	default:
		return "invalid"
	}
}

// ParseKind parses a kind name as printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "i32", "int", "int32":
		return KindI32, nil
	case "f32", "float", "float32", "single":
		return KindF32, nil
	case "bool", "boolean":
		return KindBool, nil
	case "ptr", "pointer", "ref", "object":
		return KindPointer, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", s)
	}
}

// Value is a tagged field value.
type Value struct {
	Ptr  heapview.Address
	I32  int32
	F32  float32
	Kind Kind
	Bool bool
}

// I32 returns an i32 value.
func I32(v int32) Value { return Value{Kind: KindI32, I32: v} }

// F32 returns an f32 value.
func F32(v float32) Value { return Value{Kind: KindF32, F32: v} }

// Bool returns a bool value.
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// Pointer returns a pointer value.
func Pointer(addr heapview.Address) Value { return Value{Kind: KindPointer, Ptr: addr} }

// ParseValue parses s as a value of kind k.
func ParseValue(k Kind, s string) (Value, error) {
	switch k {
	case KindI32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return Value{}, err
		}
		return I32(int32(v)), nil
	case KindF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, err
		}
		if math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("f32 %q out of range", s)
		}
		return F32(float32(v)), nil
	case KindBool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return Bool(v), nil
	case KindPointer:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return Value{}, err
		}
		return Pointer(v), nil
	default:
		return Value{}, fmt.Errorf("invalid kind %d", k)
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindI32:
		return strconv.FormatInt(int64(v.I32), 10)
	case KindF32:
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindPointer:
		if v.Ptr == 0 {
			return "null"
		}
		return fmt.Sprintf("0x%x", v.Ptr)
	default:
		return "<invalid>"
	}
}
