package metadata

// Handle identifies a foreign class: the address of its class structure.
type Handle uint64

// Runtime is the foreign runtime's metadata table surface. Implementations
// answer from the runtime's own tables; a false result means unknown.
type Runtime interface {
	// ClassFromName looks up a class by fully-qualified name.
	ClassFromName(name string) (Handle, bool)
	// ClassName returns the fully-qualified name of a class.
	ClassName(h Handle) (string, bool)
	// InstanceSize returns the instance size including the object header.
	InstanceSize(h Handle) (uint32, bool)
	// ElementClass returns the element class of an array class.
	ElementClass(h Handle) (Handle, bool)
	// FieldOffset returns the offset of a named instance field from the
	// start of the object, searching base classes.
	FieldOffset(h Handle, field string) (uint32, bool)
}

// ValueTyper is optionally implemented by runtimes that know whether a
// class is a value type (stored inline in arrays) or a reference type.
type ValueTyper interface {
	IsValueType(h Handle) (bool, bool)
}
