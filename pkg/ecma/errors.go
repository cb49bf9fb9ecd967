package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// ErrorReference carries a thrown value across engine boundaries as a
// small refcounted record. The abort flag distinguishes host-requested
// aborts from ordinary exceptions; both travel the same way.
type ErrorReference struct {
	refsAndFlags uint16
	value        Value
}

const (
	errorRefAbort uint16 = 1 << 0
	errorRefOne   uint16 = 1 << 1
	errorRefMax   uint16 = 0xFFFF &^ (errorRefOne - 1)
)

// CreateErrorReference wraps a value in a new error reference with one
// reference. isException false marks the reference as an abort.
func (ctx *Context) CreateErrorReference(value Value, isException bool) Value {
	ref := &ErrorReference{refsAndFlags: errorRefOne, value: value}
	if !isException {
		ref.refsAndFlags |= errorRefAbort
	}
	return makeErrorRefValue(ctx.pools.Alloc(ref))
}

// CreateErrorReferenceFromContext captures the pending exception or abort
// into an error reference, clearing the pending state.
func (ctx *Context) CreateErrorReferenceFromContext() Value {
	isAbort := ctx.pendingAbort
	ctx.pendingAbort = false
	return ctx.CreateErrorReference(ctx.TakeException(), !isAbort)
}

// ErrorReferenceValue returns the value carried by an error reference.
func (ctx *Context) ErrorReferenceValue(ref Value) Value {
	debugAssert(ref.Type() == TypeErrorRef, "error reference expected")
	return jmem.Get[*ErrorReference](ctx.heap, ref.asErrorRefPointer()).value
}

// RefErrorReference increments the reference counter; saturation is fatal.
func (ctx *Context) RefErrorReference(ref Value) {
	rec := jmem.Get[*ErrorReference](ctx.heap, ref.asErrorRefPointer())
	if rec.refsAndFlags >= errorRefMax {
		ctx.heap.Fatal(jmem.FatalRefCountLimit)
	}
	rec.refsAndFlags += errorRefOne
}

// DerefErrorReference decrements the reference counter, releasing the
// carried value with the last reference.
func (ctx *Context) DerefErrorReference(ref Value) {
	cp := ref.asErrorRefPointer()
	rec := jmem.Get[*ErrorReference](ctx.heap, cp)
	debugAssert(rec.refsAndFlags >= errorRefOne, "error reference refcount underflow")

	rec.refsAndFlags -= errorRefOne
	if rec.refsAndFlags < errorRefOne {
		ctx.FreeValue(rec.value)
		ctx.pools.Free(cp)
	}
}

// RaiseFromRef re-raises the error carried by a reference: the value moves
// into the context's pending state and one reference is released.
func (ctx *Context) RaiseFromRef(ref Value) {
	debugAssert(!ctx.pendingException && !ctx.pendingAbort, "raise with a pending error")

	cp := ref.asErrorRefPointer()
	rec := jmem.Get[*ErrorReference](ctx.heap, cp)
	debugAssert(rec.refsAndFlags >= errorRefOne, "raise from a dead error reference")

	value := rec.value
	ctx.pendingException = true
	ctx.pendingAbort = rec.refsAndFlags&errorRefAbort != 0

	if rec.refsAndFlags >= 2*errorRefOne {
		rec.refsAndFlags -= errorRefOne
		value = ctx.CopyValue(value)
	} else {
		ctx.pools.Free(cp)
	}
	ctx.errorValue = value
}

// HasPendingException reports whether an exception is in flight.
func (ctx *Context) HasPendingException() bool {
	return ctx.pendingException
}

// HasPendingAbort reports whether the pending error is an abort.
func (ctx *Context) HasPendingAbort() bool {
	return ctx.pendingAbort
}

// TakeException moves the pending error value out of the context.
func (ctx *Context) TakeException() Value {
	debugAssert(ctx.pendingException, "no pending exception to take")
	ctx.pendingException = false
	v := ctx.errorValue
	ctx.errorValue = Undefined
	return v
}

// SetException installs a pending exception value; the interpreter-facing
// rendition of throw.
func (ctx *Context) SetException(value Value) {
	debugAssert(!ctx.pendingException, "exception already pending")
	ctx.pendingException = true
	ctx.errorValue = value
}
