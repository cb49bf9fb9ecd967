package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// CompiledCode status flags.
const (
	// CodeFlagFunction marks function byte code (as opposed to regexp
	// byte code, which carries no literal table).
	CodeFlagFunction uint16 = 1 << 0
	// CodeFlagStatic marks code whose lifetime is not refcounted.
	CodeFlagStatic uint16 = 1 << 1
	// CodeFlagDebuggerIgnore excludes code from debugger release
	// notifications.
	CodeFlagDebuggerIgnore uint16 = 1 << 2
)

// CompiledCode is a compiled code block: the reference counter, status
// flags, and the literal tables the interpreter resolves against. Nested
// function literals hold references to their own code blocks.
type CompiledCode struct {
	refs        uint16
	statusFlags uint16

	literalValues []Value
	literalCodes  []jmem.Pointer
}

// NewCompiledCode allocates a code block with one reference.
func (ctx *Context) NewCompiledCode(statusFlags uint16, literalValues []Value, literalCodes []jmem.Pointer) jmem.Pointer {
	code := &CompiledCode{
		refs:          1,
		statusFlags:   statusFlags,
		literalValues: literalValues,
		literalCodes:  literalCodes,
	}
	return ctx.heap.Alloc(code)
}

// CompiledCodeRefs reports the reference count of a code block.
func (ctx *Context) CompiledCodeRefs(codeCP jmem.Pointer) uint16 {
	return jmem.Get[*CompiledCode](ctx.heap, codeCP).refs
}

// BytecodeRef increments a code block's reference counter. Reaching the
// counter maximum is fatal.
func (ctx *Context) BytecodeRef(codeCP jmem.Pointer) {
	code := jmem.Get[*CompiledCode](ctx.heap, codeCP)
	if code.refs == maxUint16 {
		ctx.heap.Fatal(jmem.FatalRefCountLimit)
	}
	code.refs++
}

// BytecodeDeref decrements a code block's reference counter. Dropping the
// last reference releases the literal tables and walks nested code blocks;
// with a debugger attached the block itself is parked on the pending free
// list until the debugger has been notified.
func (ctx *Context) BytecodeDeref(codeCP jmem.Pointer) {
	code := jmem.Get[*CompiledCode](ctx.heap, codeCP)
	debugAssert(code.refs > 0, "bytecode refcount underflow")
	debugAssert(code.statusFlags&CodeFlagStatic == 0, "deref of static bytecode")

	code.refs--
	if code.refs > 0 {
		return
	}

	if code.statusFlags&CodeFlagFunction != 0 {
		for _, litCP := range code.literalCodes {
			// Self references are ignored.
			if litCP != codeCP {
				ctx.BytecodeDeref(litCP)
			}
		}
		for _, v := range code.literalValues {
			ctx.FreeValue(v)
		}

		if ctx.debuggerConnected && code.statusFlags&CodeFlagDebuggerIgnore == 0 {
			// Delay the free until the debugger client is notified.
			ctx.debuggerByteCodeFree.Add(codeCP)
			return
		}
	}

	ctx.heap.Free(codeCP)
}

// DebuggerReleasePending frees the code blocks parked for debugger
// notification and returns how many were released.
func (ctx *Context) DebuggerReleasePending() int {
	released := 0
	for !ctx.debuggerByteCodeFree.Empty() {
		v, _ := ctx.debuggerByteCodeFree.Get(0)
		ctx.debuggerByteCodeFree.Remove(0)
		ctx.heap.Free(v.(jmem.Pointer))
		released++
	}
	return released
}

// DebuggerPendingFreeCount reports how many code blocks await release.
func (ctx *Context) DebuggerPendingFreeCount() int {
	return ctx.debuggerByteCodeFree.Size()
}
