package metadata

import "fmt"

// Class is a cached descriptor of a foreign class.
type Class struct {
	// Element is the resolved element class for array classes.
	Element *Class
	Name    string
	Handle  Handle
	// InstanceSize includes the object header; valid when HasSize is set.
	InstanceSize uint32
	HasSize      bool
	// ValueType is set for classes stored inline; valid when HasKind is set.
	ValueType bool
	HasKind   bool
}

// IsArray reports whether the class has an element class.
func (c *Class) IsArray() bool {
	return c != nil && c.Element != nil
}

// String returns the class name, or its handle when unnamed.
func (c *Class) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("class@0x%x", uint64(c.Handle))
}
