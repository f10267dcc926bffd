package snapshot

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/heapview/errors"
)

// Manifest describes a heap image.
type Manifest struct {
	Guest    *GuestConfig      `yaml:"guest,omitempty"`
	Roots    map[string]uint64 `yaml:"roots,omitempty"`
	Schema   SchemaRef         `yaml:"schema"`
	Segments []SegmentConfig   `yaml:"segments,omitempty"`
	Layout   LayoutConfig      `yaml:"layout,omitempty"`
}

// LayoutConfig overrides the default ABI layout. Zero fields keep defaults.
type LayoutConfig struct {
	PointerWidth uint32 `yaml:"pointer_width,omitempty"`
	MaxElements  uint32 `yaml:"max_elements,omitempty"`
}

// SegmentConfig is one captured memory range. Data is hex and may contain
// whitespace; File is relative to the manifest. Size zero-extends the
// segment, or allocates a zeroed one when neither File nor Data is set.
type SegmentConfig struct {
	File string `yaml:"file,omitempty"`
	Data string `yaml:"data,omitempty"`
	Base uint64 `yaml:"base"`
	Size uint32 `yaml:"size,omitempty"`
}

// GuestConfig runs the foreign runtime as a WebAssembly module.
type GuestConfig struct {
	Wasm   string `yaml:"wasm"`
	Memory string `yaml:"memory,omitempty"`
	// Init names an exported function called once after instantiation.
	Init string `yaml:"init,omitempty"`
	Base uint64 `yaml:"base,omitempty"`
}

// SchemaRef is either a path to a schema dump or an inline schema.
type SchemaRef struct {
	Inline *Schema
	Path   string
}

// UnmarshalYAML accepts a scalar path or an inline mapping.
func (r *SchemaRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&r.Path)
	}
	var s Schema
	if err := node.Decode(&s); err != nil {
		return err
	}
	r.Inline = &s
	return nil
}

// MarshalYAML writes the path when set, otherwise the inline schema.
func (r SchemaRef) MarshalYAML() (any, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	return r.Path, nil
}

// ParseManifest decodes a manifest. JSON manifests parse as well.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.ParseFailed("manifest", err)
	}
	if m.Schema.Inline == nil && m.Schema.Path == "" {
		return nil, errors.InvalidData(errors.PhaseParse, []string{"schema"}, "manifest has no schema")
	}
	for i, seg := range m.Segments {
		if seg.File != "" && seg.Data != "" {
			return nil, errors.InvalidData(errors.PhaseParse,
				[]string{"segments", fmt.Sprintf("%d", i)}, "segment sets both file and data")
		}
	}
	if m.Guest != nil && m.Guest.Wasm == "" {
		return nil, errors.InvalidData(errors.PhaseParse, []string{"guest", "wasm"}, "guest has no wasm module")
	}
	return &m, nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read manifest "+path, err)
	}
	return ParseManifest(data)
}

// bytes returns the segment contents, reading File relative to dir.
func (s SegmentConfig) bytes(dir string) ([]byte, error) {
	var data []byte
	switch {
	case s.File != "":
		b, err := os.ReadFile(resolvePath(dir, s.File))
		if err != nil {
			return nil, errors.Load("read segment "+s.File, err)
		}
		data = b
	case s.Data != "":
		b, err := hex.DecodeString(strings.Join(strings.Fields(s.Data), ""))
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("segment 0x%x data", s.Base), err)
		}
		data = b
	}
	if uint32(len(data)) < s.Size {
		data = append(data, make([]byte, int(s.Size)-len(data))...)
	}
	return data, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
