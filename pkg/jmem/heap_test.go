package jmem

import (
	"testing"
)

func TestHeapAllocFree(t *testing.T) {
	h := NewHeap(Width32, 0)

	a := h.Alloc("a")
	b := h.Alloc("b")
	if a == Null || b == Null || a == b {
		t.Fatalf("expected two distinct non-null pointers, got %d and %d", a, b)
	}
	if got := h.Block(a); got != "a" {
		t.Errorf("Block(a) = %v, want \"a\"", got)
	}
	if h.Live() != 2 {
		t.Errorf("Live() = %d, want 2", h.Live())
	}

	h.Free(a)
	if h.Live() != 1 {
		t.Errorf("Live() after free = %d, want 1", h.Live())
	}
}

func TestHeapRecyclesLowestPointerFirst(t *testing.T) {
	h := NewHeap(Width32, 0)

	var ptrs []Pointer
	for i := 0; i < 5; i++ {
		ptrs = append(ptrs, h.Alloc(i))
	}
	// Free out of order; reallocation must hand back the lowest id first.
	h.Free(ptrs[3])
	h.Free(ptrs[1])
	h.Free(ptrs[4])

	if p := h.Alloc("x"); p != ptrs[1] {
		t.Errorf("first realloc = %d, want lowest freed id %d", p, ptrs[1])
	}
	if p := h.Alloc("y"); p != ptrs[3] {
		t.Errorf("second realloc = %d, want %d", p, ptrs[3])
	}
	if p := h.Alloc("z"); p != ptrs[4] {
		t.Errorf("third realloc = %d, want %d", p, ptrs[4])
	}
}

func TestHeapAllocNullOnErrorHonorsLimit(t *testing.T) {
	h := NewHeap(Width32, 2)

	if h.AllocNullOnError("a") == Null {
		t.Fatal("first allocation unexpectedly failed")
	}
	if h.AllocNullOnError("b") == Null {
		t.Fatal("second allocation unexpectedly failed")
	}
	if p := h.AllocNullOnError("c"); p != Null {
		t.Errorf("allocation over the limit returned %d, want Null", p)
	}
	if h.Live() != 2 {
		t.Errorf("failed allocation changed Live() to %d, want 2", h.Live())
	}
}

func TestHeapMandatoryAllocFatal(t *testing.T) {
	h := NewHeap(Width32, 1)
	h.Alloc("a")

	defer func() {
		r := recover()
		fe, ok := r.(*FatalError)
		if !ok {
			t.Fatalf("expected *FatalError panic, got %v", r)
		}
		if fe.Code != FatalOutOfMemory {
			t.Errorf("fatal code = %v, want FatalOutOfMemory", fe.Code)
		}
	}()
	h.Alloc("b")
	t.Fatal("mandatory allocation over the limit did not fail")
}

func TestHeapGetDecodesTypedBlock(t *testing.T) {
	type rec struct{ n int }
	h := NewHeap(Width16, 0)
	p := h.Alloc(&rec{n: 7})
	if got := Get[*rec](h, p); got.n != 7 {
		t.Errorf("decoded record n = %d, want 7", got.n)
	}
}

func TestPoolsReuseParkedHandles(t *testing.T) {
	h := NewHeap(Width32, 0)
	pools := NewPools(h)

	a := pools.Alloc("a")
	pools.Free(a)

	b := pools.Alloc("b")
	if b != a {
		t.Errorf("pooled realloc = %d, want parked handle %d", b, a)
	}
	if got := h.Block(b); got != "b" {
		t.Errorf("Block after pooled realloc = %v, want \"b\"", got)
	}

	allocs, reuses := pools.Stats()
	if allocs != 2 || reuses != 1 {
		t.Errorf("pool stats = (%d, %d), want (2, 1)", allocs, reuses)
	}
}
