package jmem

import (
	"fmt"

	"github.com/google/btree"
)

// Pointer is a compressed heap reference: a small integer handle that the
// owning Heap can turn back into the referenced block in O(1). Null is the
// designated empty value; valid pointers are always nonzero.
type Pointer uint32

// Null is the empty compressed pointer.
const Null Pointer = 0

// Supported pointer widths. With Width16 the heap never issues a handle
// above 16 bits, so a Pointer can be stored in a uint16 field.
const (
	Width16 = 16
	Width32 = 32
)

const maxPointer16 = 0xFFFF

// FatalCode identifies an unrecoverable engine condition.
type FatalCode uint8

const (
	// FatalOutOfMemory is raised when a mandatory allocation fails.
	FatalOutOfMemory FatalCode = iota
	// FatalRefCountLimit is raised when a saturating reference counter
	// reaches its maximum.
	FatalRefCountLimit
	// FatalPointerLimit is raised when a Width16 heap runs out of handles.
	FatalPointerLimit
)

func (c FatalCode) String() string {
	switch c {
	case FatalOutOfMemory:
		return "out of memory"
	case FatalRefCountLimit:
		return "reference count limit reached"
	case FatalPointerLimit:
		return "compressed pointer limit reached"
	default:
		return "unknown fatal error"
	}
}

// FatalError is the panic payload used by the default fatal handler.
type FatalError struct {
	Code FatalCode
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("jmem: fatal: %s", e.Code)
}

// Heap issues compressed pointers for allocated blocks. A block is any
// engine record; the heap owns the handle space, not the record memory.
// Freed handles are recycled lowest-first so that handles stay dense and a
// Width16 heap keeps fitting its 16-bit budget.
type Heap struct {
	width  int
	limit  int // maximum live blocks, 0 means unlimited
	blocks []any
	free   *btree.BTreeG[Pointer]
	live   int
	fatal  func(FatalCode)

	totalAllocs uint64
	peakLive    int
}

// NewHeap creates a heap for the given pointer width. limit caps the number
// of live blocks (AllocNullOnError returns Null at the cap, Alloc is fatal);
// 0 means unlimited.
func NewHeap(width, limit int) *Heap {
	if width != Width16 && width != Width32 {
		panic(fmt.Sprintf("jmem: unsupported pointer width %d", width))
	}
	return &Heap{
		width: width,
		limit: limit,
		free:  btree.NewG[Pointer](2, func(a, b Pointer) bool { return a < b }),
		fatal: func(code FatalCode) { panic(&FatalError{Code: code}) },
	}
}

// SetFatalHandler replaces the handler invoked on unrecoverable conditions.
// The handler must not return normally.
func (h *Heap) SetFatalHandler(fn func(FatalCode)) {
	h.fatal = fn
}

// Fatal reports an unrecoverable condition through the heap's handler.
func (h *Heap) Fatal(code FatalCode) {
	h.fatal(code)
	panic(&FatalError{Code: code}) // unreachable unless the handler returns
}

// Alloc stores a block and returns its compressed pointer. Allocation
// failures are fatal; callers that can tolerate failure use AllocNullOnError.
func (h *Heap) Alloc(block any) Pointer {
	p := h.AllocNullOnError(block)
	if p == Null {
		if h.limit > 0 && h.live >= h.limit {
			h.Fatal(FatalOutOfMemory)
		}
		h.Fatal(FatalPointerLimit)
	}
	return p
}

// AllocNullOnError stores a block and returns its compressed pointer, or
// Null when the heap's block budget or handle space is exhausted. On Null
// the heap is unchanged.
func (h *Heap) AllocNullOnError(block any) Pointer {
	if block == nil {
		panic("jmem: nil block")
	}
	if h.limit > 0 && h.live >= h.limit {
		return Null
	}
	if id, ok := h.free.DeleteMin(); ok {
		h.blocks[id-1] = block
		h.bump()
		return id
	}
	if h.width == Width16 && len(h.blocks) >= maxPointer16 {
		return Null
	}
	h.blocks = append(h.blocks, block)
	h.bump()
	return Pointer(len(h.blocks))
}

func (h *Heap) bump() {
	h.live++
	h.totalAllocs++
	if h.live > h.peakLive {
		h.peakLive = h.live
	}
}

// Free releases a pointer. The handle becomes eligible for reuse.
func (h *Heap) Free(p Pointer) {
	h.check(p)
	h.blocks[p-1] = nil
	h.live--
	h.free.ReplaceOrInsert(p)
}

// Replace swaps the block behind a live pointer. Used by the pool layer to
// recycle a handle without round-tripping through the free index.
func (h *Heap) Replace(p Pointer, block any) {
	h.check(p)
	if block == nil {
		panic("jmem: nil block")
	}
	h.blocks[p-1] = block
}

// Block decodes a compressed pointer.
func (h *Heap) Block(p Pointer) any {
	h.check(p)
	return h.blocks[p-1]
}

// Live returns the number of live blocks.
func (h *Heap) Live() int {
	return h.live
}

// Stats reports the total number of allocations and the peak number of
// simultaneously live blocks.
func (h *Heap) Stats() (totalAllocs uint64, peakLive int) {
	return h.totalAllocs, h.peakLive
}

func (h *Heap) check(p Pointer) {
	if p == Null || int(p) > len(h.blocks) {
		panic(fmt.Sprintf("jmem: invalid pointer %d", p))
	}
	if h.blocks[p-1] == nil {
		panic(fmt.Sprintf("jmem: pointer %d is not live", p))
	}
}

// Get decodes a compressed pointer to its concrete block type.
func Get[T any](h *Heap, p Pointer) T {
	return h.Block(p).(T)
}
