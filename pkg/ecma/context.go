package ecma

import (
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/emirpasic/gods/lists/singlylinkedlist"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// HashmapAllocState is the runtime switch permitting or forbidding property
// hashmap growth; the host flips it OFF under memory pressure.
type HashmapAllocState uint8

const (
	HashmapAllocOn HashmapAllocState = iota
	HashmapAllocOff
)

// Config carries the per-context configuration. All fields are fixed for
// the context's lifetime except the hashmap allocation state, which is a
// runtime flag on the context itself.
type Config struct {
	// HashmapEnabled installs the property hashmap accelerator. When off,
	// property lookup falls back to the MRU hints and a linear scan.
	HashmapEnabled bool
	// LookupCacheEnabled installs the (object, name) lookup cache.
	LookupCacheEnabled bool
	// PointerWidth is jmem.Width16 or jmem.Width32. It selects the MRU
	// hint arity and the storage form of accessor pairs.
	PointerWidth int
	// MinimumHashmapSize is the property count at which a hashmap is
	// attached to a list.
	MinimumHashmapSize uint32
	// LookupCacheRows must be a power of two.
	LookupCacheRows int
	// LookupCacheRowLen is the associativity of one cache row.
	LookupCacheRowLen int
	// HeapLimit caps the number of live heap blocks; 0 means unlimited.
	HeapLimit int
	// Assertions enables the debug invariant sweeps.
	Assertions bool
}

// DefaultConfig mirrors the default build of the engine: both accelerators
// on, 16-bit pointers, a 128x2 lookup cache.
func DefaultConfig() Config {
	return Config{
		HashmapEnabled:     true,
		LookupCacheEnabled: true,
		PointerWidth:       jmem.Width16,
		MinimumHashmapSize: 32,
		LookupCacheRows:    128,
		LookupCacheRowLen:  2,
	}
}

// Context is one engine instance. Everything that the original engine kept
// in process-global state lives here: the heap, the string table, the
// lookup cache, the hashmap allocation switch, and the pending error
// state. A context is single-threaded; distinct contexts are independent.
type Context struct {
	id     uint64
	config Config

	heap  *jmem.Heap
	pools *jmem.Pools

	strings map[string]jmem.Pointer
	lcache  *lookupCache

	hashmapAllocState HashmapAllocState
	hashmapCount      int

	propertyCacheSize int

	pendingException bool
	pendingAbort     bool
	errorValue       Value

	debuggerConnected    bool
	debuggerByteCodeFree *singlylinkedlist.List

	assertions bool
}

// contexts is the process-wide registry of live contexts. Each context is
// single-threaded, but hosts run instances on separate goroutines, so the
// registry itself must be safe for concurrent access.
var (
	contexts      = hashmap.New[uint64, *Context]()
	nextContextID atomic.Uint64
)

// NewContext creates and registers an engine context.
func NewContext(cfg Config) *Context {
	if cfg.PointerWidth == 0 {
		cfg.PointerWidth = jmem.Width16
	}
	if cfg.MinimumHashmapSize == 0 {
		cfg.MinimumHashmapSize = 32
	}
	ctx := &Context{
		id:      nextContextID.Add(1),
		config:  cfg,
		heap:    jmem.NewHeap(cfg.PointerWidth, cfg.HeapLimit),
		strings: make(map[string]jmem.Pointer),

		debuggerByteCodeFree: singlylinkedlist.New(),
		assertions:           cfg.Assertions,
	}
	ctx.pools = jmem.NewPools(ctx.heap)
	if cfg.PointerWidth == jmem.Width32 {
		ctx.propertyCacheSize = 2
	} else {
		ctx.propertyCacheSize = 3
	}
	if cfg.LookupCacheEnabled {
		ctx.lcache = newLookupCache(cfg.LookupCacheRows, cfg.LookupCacheRowLen)
	}
	contexts.Set(ctx.id, ctx)
	return ctx
}

// Release unregisters the context. The context must not be used afterwards.
func (ctx *Context) Release() {
	contexts.Del(ctx.id)
}

// ID returns the context's registry id.
func (ctx *Context) ID() uint64 {
	return ctx.id
}

// Config returns the context configuration.
func (ctx *Context) Config() Config {
	return ctx.config
}

// Heap exposes the context heap for collaborators and diagnostics.
func (ctx *Context) Heap() *jmem.Heap {
	return ctx.heap
}

// RangeContexts visits every live context; used by diagnostics running
// outside the engine goroutines.
func RangeContexts(fn func(*Context) bool) {
	contexts.Range(func(_ uint64, ctx *Context) bool {
		return fn(ctx)
	})
}

// SetHashmapAllocState flips the runtime hashmap growth switch.
func (ctx *Context) SetHashmapAllocState(state HashmapAllocState) {
	ctx.hashmapAllocState = state
}

// HashmapCount reports how many property hashmaps are currently attached;
// a debug observable.
func (ctx *Context) HashmapCount() int {
	return ctx.hashmapCount
}

// SetDebuggerConnected marks whether a remote debugger is attached, which
// defers bytecode release (see BytecodeDeref).
func (ctx *Context) SetDebuggerConnected(connected bool) {
	ctx.debuggerConnected = connected
}

func (ctx *Context) object(cp jmem.Pointer) *Object {
	return jmem.Get[*Object](ctx.heap, cp)
}

func (ctx *Context) propertyList(cp jmem.Pointer) *propertyList {
	return jmem.Get[*propertyList](ctx.heap, cp)
}

func (ctx *Context) debugAssert(cond bool, msg string) {
	if ctx.assertions && !cond {
		panic("ecma: assertion failed: " + msg)
	}
}

// debugAssert is the context-free variant used by record-level operations.
// Violations are bugs, not runtime conditions, so it is always armed.
func debugAssert(cond bool, msg string) {
	if !cond {
		panic("ecma: assertion failed: " + msg)
	}
}
