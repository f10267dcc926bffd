// Package memory provides heapview.Memory backends.
//
// # Segment Buffer
//
// Buffer maps byte slices at fixed foreign addresses. Heap images captured
// from a foreign runtime are loaded into a Buffer, and tests build synthetic
// heaps in one:
//
//	buf := memory.NewBuffer()
//	if err := buf.Map(0x10000, data); err != nil {
//	    return err
//	}
//
// # Guest Memory
//
// A foreign runtime compiled to WebAssembly keeps its heap in linear memory.
// Wrapper adapts a wazero api.Memory, placing linear offset 0 at a chosen
// base address:
//
//	mem := memory.WrapMemory(mod.ExportedMemory("memory"), 0)
//
// OpenGuest compiles and instantiates a guest module and wraps its exported
// memory in one step.
//
// # Native Memory
//
// Native accesses the current process directly and is only meaningful when
// the inspecting code runs inside the foreign runtime's process. Hardware
// faults are recovered at the access boundary.
package memory
