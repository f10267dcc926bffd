package metadata_test

import (
	"sync"
	"testing"

	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/internal/heaptest"
	"github.com/wippyai/heapview/metadata"
)

func TestCache_ResolveIdempotent(t *testing.T) {
	h := heaptest.New(8)
	h.DefineClass("Game.Unit", 0x40, map[string]uint32{"_hp": 0x10})
	c := metadata.NewCache(h.RT)

	first, err := c.Resolve("Game.Unit")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	calls := h.RT.Calls()

	second, err := c.Resolve("Game.Unit")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if first != second {
		t.Error("expected identical descriptor pointer")
	}
	if h.RT.Calls() != calls {
		t.Errorf("second Resolve hit the runtime: %d -> %d calls", calls, h.RT.Calls())
	}
	if first.Name != "Game.Unit" || first.InstanceSize != 0x40 || !first.HasSize {
		t.Errorf("unexpected descriptor: %+v", first)
	}

	st := c.Stats()
	if st.Hits != 1 || st.Classes != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestCache_NameAndHeaderShareDescriptor(t *testing.T) {
	h := heaptest.New(8)
	cls := h.DefineClass("Game.Unit", 0x20, nil)
	obj := h.New(cls)
	c := metadata.NewCache(h.RT)

	byHeader, err := c.ClassOf(h.Mem, h.Layout, obj)
	if err != nil {
		t.Fatalf("ClassOf failed: %v", err)
	}
	byName, err := c.Resolve("Game.Unit")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if byHeader != byName {
		t.Error("header and name lookups returned different descriptors")
	}
	if byHeader.Handle != cls {
		t.Errorf("Handle = 0x%x, want 0x%x", uint64(byHeader.Handle), uint64(cls))
	}
}

func TestCache_NotFound(t *testing.T) {
	h := heaptest.New(8)
	c := metadata.NewCache(h.RT)

	cls, err := c.Resolve("Missing")
	if cls != nil {
		t.Error("expected nil class")
	}
	if !errors.IsKind(err, errors.KindUnresolvedType) {
		t.Errorf("expected unresolved_type, got %v", err)
	}

	if _, err := c.ByHandle(0xdead); !errors.IsKind(err, errors.KindUnresolvedType) {
		t.Errorf("expected unresolved_type for unknown handle, got %v", err)
	}
	if _, err := c.ByHandle(0); !errors.IsKind(err, errors.KindUnresolvedType) {
		t.Errorf("expected unresolved_type for zero handle, got %v", err)
	}
	if _, err := c.ClassOf(h.Mem, h.Layout, 0); !errors.IsKind(err, errors.KindNullTarget) {
		t.Errorf("expected null_target, got %v", err)
	}
	if _, err := c.ClassOf(h.Mem, h.Layout, 0x1); !errors.IsKind(err, errors.KindFaultedAccess) {
		t.Errorf("expected faulted_access for unmapped header, got %v", err)
	}

	// misses are not cached
	h.DefineClass("Missing", 0x10, nil)
	if _, err := c.Resolve("Missing"); err != nil {
		t.Errorf("expected late-registered class to resolve: %v", err)
	}
}

func TestCache_ElementClass(t *testing.T) {
	h := heaptest.New(8)
	arr := h.EntryArrayClassHandle(true)
	c := metadata.NewCache(h.RT)

	cls, err := c.ByHandle(arr)
	if err != nil {
		t.Fatalf("ByHandle failed: %v", err)
	}
	if !cls.IsArray() {
		t.Fatal("expected array class")
	}
	if cls.Element.Name != heaptest.EntryClass {
		t.Errorf("Element = %s", cls.Element)
	}
	if !cls.Element.HasKind || !cls.Element.ValueType {
		t.Error("expected element to be a value type")
	}
	if cls.Element.InstanceSize != 16+24 {
		t.Errorf("element size = %d", cls.Element.InstanceSize)
	}

	self := h.Define(heaptest.ClassDef{Name: "Self[]", Handle: 0x900000, Element: 0x900000})
	sc, err := c.ByHandle(self)
	if err != nil {
		t.Fatalf("ByHandle(self) failed: %v", err)
	}
	if sc.Element != nil {
		t.Error("self-referential element should be ignored")
	}
}

func TestCache_Reset(t *testing.T) {
	h := heaptest.New(8)
	h.DefineClass("Game.Unit", 0x20, nil)
	c := metadata.NewCache(h.RT)

	before, _ := c.Resolve("Game.Unit")
	c.Reset()
	if st := c.Stats(); st.Classes != 0 || st.Hits != 0 || st.Lookups != 0 {
		t.Errorf("Stats after Reset = %+v", st)
	}
	after, err := c.Resolve("Game.Unit")
	if err != nil {
		t.Fatalf("Resolve after Reset failed: %v", err)
	}
	if before == after {
		t.Error("expected a fresh descriptor after Reset")
	}
}

func TestCache_Concurrent(t *testing.T) {
	h := heaptest.New(8)
	for _, n := range []string{"A", "B", "C", "D"} {
		h.DefineClass(n, 0x20, nil)
	}
	c := metadata.NewCache(h.RT)

	var wg sync.WaitGroup
	results := make([][4]*metadata.Class, 16)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i, n := range []string{"A", "B", "C", "D"} {
				cls, err := c.Resolve(n)
				if err != nil {
					t.Errorf("Resolve(%s) failed: %v", n, err)
					return
				}
				results[g][i] = cls
			}
		}(g)
	}
	wg.Wait()

	for g := 1; g < len(results); g++ {
		if results[g] != results[0] {
			t.Fatalf("goroutine %d saw different descriptors", g)
		}
	}
}

func TestClass_String(t *testing.T) {
	var nilClass *metadata.Class
	if nilClass.String() != "<nil>" {
		t.Error("nil class string")
	}
	if (&metadata.Class{Handle: 0x10}).String() != "class@0x10" {
		t.Error("unnamed class string")
	}
	if nilClass.IsArray() {
		t.Error("nil class is not an array")
	}
}
