package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/remote"
)

// unitImage maps one Game.Unit at 0x10000 with _hp = 75 and _speed = 1.5.
const unitImage = `
layout: {pointer_width: 8}
schema: schema.yaml
segments:
  - base: 0x10000
    data: |
      00500000 00000000  00000000 00000000
      07000000 00000000  4b000000 0000c03f
      00000000 00000000
  - {base: 0x20000, size: 64}
roots:
  player: 0x10000
  scratch: 0x20000
`

func writeImage(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte(unitSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "heap.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	img, err := Open(ctx, writeImage(t, unitImage))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer img.Close(ctx)

	if diff := cmp.Diff([]string{"player", "scratch"}, img.RootNames()); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
	if img.Layout.PointerWidth != 8 || img.Guest() != nil {
		t.Errorf("layout = %+v, guest = %v", img.Layout, img.Guest())
	}

	heap := img.Heap()
	addr, err := img.Root("player")
	if err != nil {
		t.Fatal(err)
	}
	player := heap.Object(addr)

	if cls := player.Class(); cls == nil || cls.Name != "Game.Unit" {
		t.Fatalf("class = %v", cls)
	}
	if got := player.ReadI32(remote.Named("_hp")); got != 75 {
		t.Errorf("_hp = %d, want 75", got)
	}
	if got := player.ReadF32(remote.Named("_speed")); got != 1.5 {
		t.Errorf("_speed = %v, want 1.5", got)
	}
	if got := player.ReadI32(remote.Named("_id")); got != 7 {
		t.Errorf("inherited _id = %d, want 7", got)
	}
	if !player.ReadPointer(remote.Named("_target")).IsNull() {
		t.Error("_target should be null")
	}

	scratch := heap.Object(img.Roots["scratch"])
	if !scratch.WriteI32(remote.At(60), 9) || scratch.ReadI32(remote.At(60)) != 9 {
		t.Error("zero-filled segment should be writable")
	}

	if _, err := img.Root("enemy"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Root(enemy) err = %v", err)
	}
}

func TestLoad_InlineSchema(t *testing.T) {
	m, err := ParseManifest([]byte(`
layout: {pointer_width: 4, max_elements: 50}
schema:
  classes:
    - {name: Game.Box, handle: 0x100, instance_size: 12, fields: [{name: v, offset: 8}]}
segments:
  - {base: 0x1000, data: "00010000 00000000 2a000000"}
roots: {box: 0x1000}
`))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	img, err := Load(context.Background(), m, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Layout.PointerWidth != 4 || img.Layout.MaxElements != 50 || img.Layout.ArrayHeader != 16 {
		t.Errorf("layout = %+v", img.Layout)
	}
	if got := img.Heap().Object(img.Roots["box"]).ReadI32(remote.Named("v")); got != 42 {
		t.Errorf("v = %d, want 42", got)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no schema", "roots: {a: 1}"},
		{"file and data", "schema: s.yaml\nsegments: [{base: 1, file: a.bin, data: '00'}]"},
		{"guest without wasm", "schema: s.yaml\nguest: {memory: mem}"},
		{"malformed", "schema: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.src)); !errors.IsKind(err, errors.KindInvalidData) {
				t.Errorf("err = %v, want invalid_data", err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing schema file", "schema: nope.yaml"},
		{"bad hex", "schema: schema.yaml\nsegments: [{base: 0x10, data: zz}]"},
		{"overlapping segments", "schema: schema.yaml\nsegments: [{base: 0x10, size: 16}, {base: 0x18, size: 16}]"},
		{"missing segment file", "schema: schema.yaml\nsegments: [{base: 0x10, file: gone.bin}]"},
		{"bad pointer width", "schema: schema.yaml\nlayout: {pointer_width: 2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if img, err := Open(ctx, writeImage(t, tt.manifest)); err == nil {
				img.Close(ctx)
				t.Error("expected error")
			}
		})
	}
}

func TestOpen_SegmentFile(t *testing.T) {
	ctx := context.Background()
	path := writeImage(t, "schema: schema.yaml\nsegments: [{base: 0x3000, file: raw.bin, size: 8}]\n")
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "raw.bin"), []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if v, err := img.Memory.ReadU32(0x3000); err != nil || v != 0x04030201 {
		t.Errorf("ReadU32 = 0x%x, %v", v, err)
	}
	if v, err := img.Memory.ReadU32(0x3004); err != nil || v != 0 {
		t.Errorf("zero extension = 0x%x, %v", v, err)
	}
}

// memoryWASM exports one page of memory as "memory".
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d,
	0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79,
	0x02, 0x00,
}

func TestOpen_Guest(t *testing.T) {
	ctx := context.Background()
	path := writeImage(t, `
schema: schema.yaml
guest: {wasm: heap.wasm}
segments:
  - {base: 0x100, data: "00500000 00000000 2a000000"}
roots: {unit: 0x100}
`)
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "heap.wasm"), memoryWASM, 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer img.Close(ctx)

	if img.Guest() == nil || img.Layout.PointerWidth != 4 {
		t.Fatalf("expected a 32-bit guest image, layout %+v", img.Layout)
	}
	// The schema offsets assume 8-byte pointers; read the patch literally.
	if got := img.Heap().Object(img.Roots["unit"]).ReadI32(remote.At(8)); got != 42 {
		t.Errorf("patched value = %d, want 42", got)
	}
	if cls := img.Heap().Object(img.Roots["unit"]).Class(); cls == nil || cls.Name != "Game.Unit" {
		t.Errorf("class = %v", cls)
	}
	if err := img.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
