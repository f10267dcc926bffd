package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/metadata"
	"github.com/wippyai/heapview/remote"
)

// Tables serves a schema dump as the foreign runtime's metadata tables.
// It is immutable after construction and safe for concurrent use.
type Tables struct {
	schema   *Schema
	byName   map[string]*ClassSchema
	byHandle map[metadata.Handle]*ClassSchema
}

var (
	_ metadata.Runtime    = (*Tables)(nil)
	_ metadata.ValueTyper = (*Tables)(nil)
)

// NewTables indexes s. Duplicate names or handles, zero handles and element
// classes missing from the dump are rejected. A base class missing from the
// dump ends the inherited field search.
func NewTables(s *Schema) (*Tables, error) {
	if s == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil schema")
	}
	t := &Tables{
		schema:   s,
		byName:   make(map[string]*ClassSchema, len(s.Classes)),
		byHandle: make(map[metadata.Handle]*ClassSchema, len(s.Classes)),
	}
	for i := range s.Classes {
		c := &s.Classes[i]
		path := []string{"classes", fmt.Sprintf("%d", i)}
		switch {
		case c.Name == "":
			return nil, errors.InvalidData(errors.PhaseLoad, path, "class has no name")
		case c.Handle == 0:
			return nil, errors.InvalidData(errors.PhaseLoad, path, fmt.Sprintf("class %q has no handle", c.Name))
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, errors.InvalidData(errors.PhaseLoad, path, fmt.Sprintf("duplicate class %q", c.Name))
		}
		if prev, dup := t.byHandle[metadata.Handle(c.Handle)]; dup {
			return nil, errors.InvalidData(errors.PhaseLoad, path,
				fmt.Sprintf("handle 0x%x shared by %q and %q", c.Handle, prev.Name, c.Name))
		}
		t.byName[c.Name] = c
		t.byHandle[metadata.Handle(c.Handle)] = c
	}
	for _, c := range t.byName {
		if c.Element == "" {
			continue
		}
		if _, ok := t.byName[c.Element]; !ok {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Class(c.Name).
				Detail("element class %q not in schema", c.Element).
				Build()
		}
	}
	Logger().Debug("schema indexed", zapClasses(len(t.byName)), zapHash(s.DumpHash))
	return t, nil
}

// Schema returns the underlying dump.
func (t *Tables) Schema() *Schema {
	return t.schema
}

// ClassFromName implements metadata.Runtime.
func (t *Tables) ClassFromName(name string) (metadata.Handle, bool) {
	c, ok := t.byName[name]
	if !ok {
		return 0, false
	}
	return metadata.Handle(c.Handle), true
}

// ClassName implements metadata.Runtime.
func (t *Tables) ClassName(h metadata.Handle) (string, bool) {
	c, ok := t.byHandle[h]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// InstanceSize implements metadata.Runtime.
func (t *Tables) InstanceSize(h metadata.Handle) (uint32, bool) {
	c, ok := t.byHandle[h]
	if !ok || c.InstanceSize == nil {
		return 0, false
	}
	return *c.InstanceSize, true
}

// ElementClass implements metadata.Runtime.
func (t *Tables) ElementClass(h metadata.Handle) (metadata.Handle, bool) {
	c, ok := t.byHandle[h]
	if !ok || c.Element == "" {
		return 0, false
	}
	return t.ClassFromName(c.Element)
}

// IsValueType implements metadata.ValueTyper.
func (t *Tables) IsValueType(h metadata.Handle) (bool, bool) {
	c, ok := t.byHandle[h]
	if !ok {
		return false, false
	}
	return c.ValueType, true
}

// FieldOffset implements metadata.Runtime, searching base classes for
// inherited fields.
func (t *Tables) FieldOffset(h metadata.Handle, field string) (uint32, bool) {
	c, ok := t.byHandle[h]
	if !ok {
		return 0, false
	}
	var found FieldSchema
	ok = false
	t.walkChain(c, func(c *ClassSchema) bool {
		for _, f := range c.Fields {
			if f.Name == field {
				found, ok = f, true
				return false
			}
		}
		return true
	})
	return found.Offset, ok
}

// Fields returns every field of h, inherited ones included, ordered by
// offset. A field redeclared by a subclass hides the base declaration.
func (t *Tables) Fields(h metadata.Handle) []FieldSchema {
	c, ok := t.byHandle[h]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []FieldSchema
	t.walkChain(c, func(c *ClassSchema) bool {
		for _, f := range c.Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				out = append(out, f)
			}
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Names returns every class name in sorted order.
func (t *Tables) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// walkChain visits c and its bases until visit returns false, the chain
// leaves the dump, or a class repeats.
func (t *Tables) walkChain(c *ClassSchema, visit func(*ClassSchema) bool) {
	seen := make(map[*ClassSchema]bool)
	for c != nil && !seen[c] {
		seen[c] = true
		if !visit(c) {
			return
		}
		if c.Base == "" {
			return
		}
		c = t.byName[c.Base]
	}
}

// Kind maps the field's declared type to an accessor kind. Types naming a
// class in t, or ending in [], read as pointers.
func (t *Tables) Kind(f FieldSchema) (remote.Kind, bool) {
	name := strings.ToLower(strings.TrimPrefix(f.Type, "System."))
	if k, err := remote.ParseKind(name); err == nil {
		return k, true
	}
	switch name {
	case "enum":
		return remote.KindI32, true
	case "string":
		return remote.KindPointer, true
	}
	if strings.HasSuffix(f.Type, "[]") {
		return remote.KindPointer, true
	}
	if c, ok := t.byName[f.Type]; ok && !c.ValueType {
		return remote.KindPointer, true
	}
	return 0, false
}
