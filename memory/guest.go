package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/heapview"
)

// GuestPointerWidth is the pointer width of a wasm32 guest.
const GuestPointerWidth = 4

// Guest is a foreign runtime running as a WebAssembly module.
type Guest struct {
	*Wrapper
	rt  wazero.Runtime
	mod api.Module
}

// OpenGuest compiles and instantiates wasm and exposes the named exported
// memory at base. Start functions are not run; use Call to drive the guest.
func OpenGuest(ctx context.Context, wasm []byte, export string, base heapview.Address) (*Guest, error) {
	rt := wazero.NewRuntime(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compile guest: %w", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithStartFunctions())
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate guest: %w", err)
	}

	if export == "" {
		export = "memory"
	}
	mem := mod.ExportedMemory(export)
	if mem == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("guest exports no memory %q", export)
	}

	return &Guest{
		Wrapper: WrapMemory(mem, base),
		rt:      rt,
		mod:     mod,
	}, nil
}

// Call invokes an exported guest function.
func (g *Guest) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := g.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("guest exports no function %q", name)
	}
	return fn.Call(ctx, params...)
}

// Close releases the guest and its runtime.
func (g *Guest) Close(ctx context.Context) error {
	return g.rt.Close(ctx)
}
