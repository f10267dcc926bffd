package snapshot

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/heapview/errors"
)

// Schema is a dump of the foreign runtime's class tables.
type Schema struct {
	DumpHash string                `yaml:"dump_hash,omitempty"`
	Version  string                `yaml:"version,omitempty"` // foreign runtime build, ideally semver
	Classes  []ClassSchema         `yaml:"classes"`
	Enums    map[string]EnumSchema `yaml:"enums,omitempty"`
}

// EnumSchema lists the named constants of one enum type.
type EnumSchema struct {
	Underlying string           `yaml:"underlying_type,omitempty"`
	Values     map[string]int64 `yaml:"values"`
}

// ClassSchema describes one class.
type ClassSchema struct {
	InstanceSize *uint32       `yaml:"instance_size,omitempty"`
	Name         string        `yaml:"name"`
	Base         string        `yaml:"base,omitempty"`
	Element      string        `yaml:"element,omitempty"`
	Fields       []FieldSchema `yaml:"fields,omitempty"`
	Handle       uint64        `yaml:"handle"`
	ValueType    bool          `yaml:"value_type,omitempty"`
}

// FieldSchema describes one instance field declared by a class.
type FieldSchema struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Offset uint32 `yaml:"offset"`
}

// ParseSchema decodes a schema dump. JSON dumps parse as well.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.ParseFailed("schema", err)
	}
	return &s, nil
}

// LoadSchema reads and decodes a schema dump file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read schema "+path, err)
	}
	return ParseSchema(data)
}

// Class returns the class named name.
func (s *Schema) Class(name string) (*ClassSchema, bool) {
	for i := range s.Classes {
		if s.Classes[i].Name == name {
			return &s.Classes[i], true
		}
	}
	return nil, false
}
