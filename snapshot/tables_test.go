package snapshot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/metadata"
	"github.com/wippyai/heapview/remote"
)

const unitSchema = `
dump_hash: 0123456789abcdef0123456789abcdef
classes:
  - name: Game.Entity
    handle: 0x4000
    instance_size: 0x18
    fields:
      - {name: _id, type: int, offset: 0x10}
  - name: Game.Unit
    handle: 0x5000
    base: Game.Entity
    instance_size: 0x28
    fields:
      - {name: _hp, type: int, offset: 0x18}
      - {name: _speed, type: float, offset: 0x1c}
      - {name: _target, type: Game.Unit, offset: 0x20}
  - name: Game.Vec3
    handle: 0x6000
    instance_size: 0x1c
    value_type: true
  - name: Game.Vec3[]
    handle: 0x6100
    element: Game.Vec3
`

func mustTables(t *testing.T, src string) *Tables {
	t.Helper()
	s, err := ParseSchema([]byte(src))
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	tables, err := NewTables(s)
	if err != nil {
		t.Fatalf("NewTables failed: %v", err)
	}
	return tables
}

func TestTables_Runtime(t *testing.T) {
	tables := mustTables(t, unitSchema)

	h, ok := tables.ClassFromName("Game.Unit")
	if !ok || h != 0x5000 {
		t.Fatalf("ClassFromName = 0x%x, %v", h, ok)
	}
	if name, ok := tables.ClassName(0x5000); !ok || name != "Game.Unit" {
		t.Errorf("ClassName = %q, %v", name, ok)
	}
	if size, ok := tables.InstanceSize(h); !ok || size != 0x28 {
		t.Errorf("InstanceSize = 0x%x, %v", size, ok)
	}
	if _, ok := tables.InstanceSize(0x6100); ok {
		t.Error("array class without instance_size should report unknown size")
	}
	if el, ok := tables.ElementClass(0x6100); !ok || el != 0x6000 {
		t.Errorf("ElementClass = 0x%x, %v", el, ok)
	}
	if vt, ok := tables.IsValueType(0x6000); !ok || !vt {
		t.Errorf("IsValueType(Vec3) = %v, %v", vt, ok)
	}
	if _, ok := tables.ClassFromName("Game.Missing"); ok {
		t.Error("unexpected class")
	}
}

func TestTables_InheritedFields(t *testing.T) {
	tables := mustTables(t, unitSchema)

	if off, ok := tables.FieldOffset(0x5000, "_id"); !ok || off != 0x10 {
		t.Errorf("inherited _id = 0x%x, %v", off, ok)
	}
	if off, ok := tables.FieldOffset(0x5000, "_hp"); !ok || off != 0x18 {
		t.Errorf("_hp = 0x%x, %v", off, ok)
	}
	if _, ok := tables.FieldOffset(0x4000, "_hp"); ok {
		t.Error("base class must not see subclass fields")
	}

	var names []string
	for _, f := range tables.Fields(0x5000) {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"_id", "_hp", "_speed", "_target"}, names); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestTables_BaseCycle(t *testing.T) {
	tables := mustTables(t, `
classes:
  - {name: A, handle: 1, base: B}
  - {name: B, handle: 2, base: A}
`)
	if _, ok := tables.FieldOffset(1, "missing"); ok {
		t.Error("unexpected field")
	}
	if got := tables.Fields(1); len(got) != 0 {
		t.Errorf("Fields = %v", got)
	}
}

func TestTables_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"duplicate name", "classes: [{name: A, handle: 1}, {name: A, handle: 2}]"},
		{"duplicate handle", "classes: [{name: A, handle: 1}, {name: B, handle: 1}]"},
		{"zero handle", "classes: [{name: A}]"},
		{"no name", "classes: [{handle: 1}]"},
		{"missing element", "classes: [{name: 'A[]', handle: 1, element: A}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchema([]byte(tt.src))
			if err != nil {
				t.Fatalf("ParseSchema failed: %v", err)
			}
			if _, err := NewTables(s); !errors.IsKind(err, errors.KindInvalidData) {
				t.Errorf("NewTables err = %v, want invalid_data", err)
			}
		})
	}
}

func TestTables_JSONSchema(t *testing.T) {
	tables := mustTables(t, `{"classes": [{"name": "A", "handle": 20480, "fields": [{"name": "x", "type": "int", "offset": 16}]}]}`)
	if off, ok := tables.FieldOffset(20480, "x"); !ok || off != 16 {
		t.Errorf("FieldOffset = %d, %v", off, ok)
	}
}

func TestTables_ThroughCache(t *testing.T) {
	tables := mustTables(t, unitSchema)
	cache := metadata.NewCache(tables)

	arr, err := cache.Resolve("Game.Vec3[]")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if arr.Element == nil || arr.Element.Name != "Game.Vec3" || !arr.Element.ValueType {
		t.Errorf("element = %+v", arr.Element)
	}
}

func TestParseSchema_Invalid(t *testing.T) {
	if _, err := ParseSchema([]byte("classes: {")); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("err = %v", err)
	}
}

func TestTables_Kind(t *testing.T) {
	tables := mustTables(t, unitSchema)
	tests := []struct {
		typ  string
		want remote.Kind
		ok   bool
	}{
		{"int", remote.KindI32, true},
		{"System.Int32", remote.KindI32, true},
		{"float", remote.KindF32, true},
		{"System.Boolean", remote.KindBool, true},
		{"string", remote.KindPointer, true},
		{"Game.Unit", remote.KindPointer, true},
		{"Game.Unit[]", remote.KindPointer, true},
		{"Game.Vec3", 0, false},
		{"double", 0, false},
	}
	for _, tt := range tests {
		got, ok := tables.Kind(FieldSchema{Type: tt.typ})
		if got != tt.want || ok != tt.ok {
			t.Errorf("Kind(%q) = %v, %v; want %v, %v", tt.typ, got, ok, tt.want, tt.ok)
		}
	}
}
