package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/memory"
	"github.com/wippyai/heapview/remote"
)

// Image is an opened heap image.
type Image struct {
	Memory   heapview.Memory
	Tables   *Tables
	Manifest *Manifest
	Roots    map[string]heapview.Address
	guest    *memory.Guest
	Layout   heapview.Layout
}

// Open loads the manifest at path and everything it references.
func Open(ctx context.Context, path string) (*Image, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return Load(ctx, m, filepath.Dir(path))
}

// Load builds an image from m, resolving relative paths against dir.
func Load(ctx context.Context, m *Manifest, dir string) (*Image, error) {
	schema := m.Schema.Inline
	if schema == nil {
		s, err := LoadSchema(resolvePath(dir, m.Schema.Path))
		if err != nil {
			return nil, err
		}
		schema = s
	}
	tables, err := NewTables(schema)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Tables:   tables,
		Manifest: m,
		Roots:    make(map[string]heapview.Address, len(m.Roots)),
	}
	for name, addr := range m.Roots {
		img.Roots[name] = addr
	}

	width := m.Layout.PointerWidth
	if width == 0 {
		width = 8
		if m.Guest != nil {
			width = memory.GuestPointerWidth
		}
	}
	img.Layout = heapview.DefaultLayout(width)
	if m.Layout.MaxElements != 0 {
		img.Layout.MaxElements = m.Layout.MaxElements
	}
	if err := img.Layout.Validate(); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "layout")
	}

	if m.Guest != nil {
		if err := img.openGuest(ctx, m.Guest, dir); err != nil {
			return nil, err
		}
	} else {
		img.Memory = memory.NewBuffer()
	}

	if err := img.mapSegments(m.Segments, dir); err != nil {
		img.Close(ctx)
		return nil, err
	}

	Logger().Info("image loaded",
		zap.Int("segments", len(m.Segments)),
		zap.Int("roots", len(img.Roots)),
		zap.Uint32("pointer_width", img.Layout.PointerWidth),
		zap.Bool("guest", img.guest != nil),
		zapHash(schema.DumpHash))
	return img, nil
}

func (img *Image) openGuest(ctx context.Context, cfg *GuestConfig, dir string) error {
	wasm, err := os.ReadFile(resolvePath(dir, cfg.Wasm))
	if err != nil {
		return errors.Load("read guest "+cfg.Wasm, err)
	}
	g, err := memory.OpenGuest(ctx, wasm, cfg.Memory, cfg.Base)
	if err != nil {
		return errors.Load("open guest", err)
	}
	if cfg.Init != "" {
		if _, err := g.Call(ctx, cfg.Init); err != nil {
			g.Close(ctx)
			return errors.Load("guest init "+cfg.Init, err)
		}
		Logger().Debug("guest initialized", zap.String("func", cfg.Init))
	}
	img.guest = g
	img.Memory = g
	return nil
}

func (img *Image) mapSegments(segs []SegmentConfig, dir string) error {
	buf, isBuffer := img.Memory.(*memory.Buffer)
	for _, seg := range segs {
		data, err := seg.bytes(dir)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		if isBuffer {
			err = buf.Map(seg.Base, data)
		} else {
			err = img.Memory.Write(seg.Base, data)
		}
		if err != nil {
			return errors.Load("map segment", err)
		}
		Logger().Debug("segment mapped", zap.Uint64("base", seg.Base), zap.Int("size", len(data)))
	}
	return nil
}

// Root returns the address of a named root.
func (img *Image) Root(name string) (heapview.Address, error) {
	addr, ok := img.Roots[name]
	if !ok {
		return 0, errors.NotFound(errors.PhaseLoad, "root", name)
	}
	return addr, nil
}

// RootNames returns the root names in sorted order.
func (img *Image) RootNames() []string {
	names := make([]string, 0, len(img.Roots))
	for n := range img.Roots {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Heap returns a heap over the image's memory and tables.
func (img *Image) Heap(opts ...remote.Option) *remote.Heap {
	opts = append([]remote.Option{remote.WithLayout(img.Layout)}, opts...)
	return remote.NewHeap(img.Memory, img.Tables, opts...)
}

// Guest returns the running guest, or nil for segment-backed images.
func (img *Image) Guest() *memory.Guest {
	return img.guest
}

// Close releases the guest runtime, if any.
func (img *Image) Close(ctx context.Context) error {
	if img.guest == nil {
		return nil
	}
	err := img.guest.Close(ctx)
	img.guest = nil
	return err
}
