package metadata

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/heapview"
	"github.com/wippyai/heapview/errors"
	"github.com/wippyai/heapview/internal/rawmem"
)

// maxElementDepth bounds element-class chains (arrays of arrays).
const maxElementDepth = 8

// Cache memoizes class descriptors. Reads take a shared lock; inserts are
// serialized. Failed lookups are not cached.
type Cache struct {
	rt       Runtime
	byName   map[string]*Class
	byHandle map[Handle]*Class
	names    singleflight.Group
	mu       sync.RWMutex
	lookups  atomic.Uint64
	hits     atomic.Uint64
}

// Stats reports cache activity.
type Stats struct {
	// Lookups counts calls into the Runtime.
	Lookups uint64
	// Hits counts lookups answered from the cache.
	Hits    uint64
	Classes int
}

// NewCache creates a cache over rt.
func NewCache(rt Runtime) *Cache {
	return &Cache{
		rt:       rt,
		byName:   make(map[string]*Class),
		byHandle: make(map[Handle]*Class),
	}
}

// Runtime returns the underlying metadata tables.
func (c *Cache) Runtime() Runtime {
	return c.rt
}

// Resolve returns the descriptor for a fully-qualified class name.
func (c *Cache) Resolve(name string) (*Class, error) {
	c.mu.RLock()
	cls, ok := c.byName[name]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return cls, nil
	}

	v, err, _ := c.names.Do(name, func() (any, error) {
		c.mu.RLock()
		cls, ok := c.byName[name]
		c.mu.RUnlock()
		if ok {
			return cls, nil
		}

		c.lookups.Add(1)
		h, ok := c.rt.ClassFromName(name)
		if !ok || h == 0 {
			return nil, errors.UnresolvedType(name)
		}

		cls, err := c.ByHandle(h)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.byName[name] = cls
		c.mu.Unlock()
		return cls, nil
	})
	if err != nil {
		Logger().Debug("class unresolved", zap.String("name", name))
		return nil, err
	}
	return v.(*Class), nil
}

// ByHandle returns the descriptor for a class handle.
func (c *Cache) ByHandle(h Handle) (*Class, error) {
	if h == 0 {
		return nil, errors.UnresolvedHandle(0)
	}

	c.mu.RLock()
	cls, ok := c.byHandle[h]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return cls, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.describeLocked(h, 0)
}

func (c *Cache) describeLocked(h Handle, depth int) (*Class, error) {
	if cls, ok := c.byHandle[h]; ok {
		return cls, nil
	}

	c.lookups.Add(1)
	name, ok := c.rt.ClassName(h)
	if !ok {
		return nil, errors.UnresolvedHandle(uint64(h))
	}

	cls := &Class{Handle: h, Name: name}
	cls.InstanceSize, cls.HasSize = c.rt.InstanceSize(h)
	if vt, ok := c.rt.(ValueTyper); ok {
		cls.ValueType, cls.HasKind = vt.IsValueType(h)
	}

	if eh, ok := c.rt.ElementClass(h); ok && eh != 0 && eh != h && depth < maxElementDepth {
		if elem, err := c.describeLocked(eh, depth+1); err == nil {
			cls.Element = elem
		}
	}

	c.byHandle[h] = cls
	Logger().Debug("class resolved",
		zap.String("name", name),
		zap.Uint64("handle", uint64(h)),
		zap.Uint32("size", cls.InstanceSize))
	return cls, nil
}

// ClassOf reads the class pointer from the header of the object at addr and
// resolves it.
func (c *Cache) ClassOf(mem heapview.Memory, layout heapview.Layout, addr heapview.Address) (*Class, error) {
	if addr == 0 {
		return nil, errors.NullTarget(errors.PhaseResolve, nil)
	}
	klass, err := rawmem.ReadPointer(mem, addr, layout.PointerWidth)
	if err != nil {
		return nil, err
	}
	return c.ByHandle(Handle(klass))
}

// Reset drops every cached descriptor. Call it when the foreign runtime
// reloads; descriptors obtained earlier must not be used afterwards.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.byName = make(map[string]*Class)
	c.byHandle = make(map[Handle]*Class)
	c.mu.Unlock()
	c.lookups.Store(0)
	c.hits.Store(0)
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	n := len(c.byHandle)
	c.mu.RUnlock()
	return Stats{
		Lookups: c.lookups.Load(),
		Hits:    c.hits.Load(),
		Classes: n,
	}
}
