package ecma

import (
	"fmt"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// Value is a compact tagged value. The low three bits select the type, the
// remaining bits carry the payload: a simple constant, a small signed
// integer, a string handle, or a compressed pointer.
type Value uint32

const (
	valueTypeBits = 3
	valueTypeMask = (1 << valueTypeBits) - 1

	// Integer payloads are 29-bit two's complement.
	integerMax = 1<<28 - 1
	integerMin = -(1 << 28)
)

// ValueType enumerates the tag of a Value.
type ValueType uint8

const (
	TypeSimple ValueType = iota
	TypeInteger
	TypeString
	TypeObject
	TypeErrorRef
)

// Simple value payloads.
const (
	simpleUndefined = iota
	simpleNull
	simpleFalse
	simpleTrue
	simpleUninitialized
)

// Predefined simple values.
var (
	Undefined     = makeSimple(simpleUndefined)
	ValueNull     = makeSimple(simpleNull)
	False         = makeSimple(simpleFalse)
	True          = makeSimple(simpleTrue)
	Uninitialized = makeSimple(simpleUninitialized)
)

func makeSimple(payload uint32) Value {
	return Value(payload<<valueTypeBits | uint32(TypeSimple))
}

// MakeInteger packs a small signed integer. The payload must fit 29 bits.
func MakeInteger(n int32) Value {
	if n < integerMin || n > integerMax {
		panic(fmt.Sprintf("ecma: integer value %d out of direct range", n))
	}
	return Value(uint32(n)<<valueTypeBits | uint32(TypeInteger))
}

// MakeStringValue wraps a string handle.
func MakeStringValue(h StringHandle) Value {
	return Value(uint32(h)<<valueTypeBits | uint32(TypeString))
}

// MakeObjectValue wraps an object's compressed pointer.
func MakeObjectValue(cp jmem.Pointer) Value {
	return Value(uint32(cp)<<valueTypeBits | uint32(TypeObject))
}

func makeErrorRefValue(cp jmem.Pointer) Value {
	return Value(uint32(cp)<<valueTypeBits | uint32(TypeErrorRef))
}

// Type returns the value's tag.
func (v Value) Type() ValueType {
	return ValueType(v & valueTypeMask)
}

func (v Value) payload() uint32 {
	return uint32(v) >> valueTypeBits
}

// IsUndefined reports whether the value is the undefined constant.
func (v Value) IsUndefined() bool { return v == Undefined }

// IsUninitialized reports whether the value is the uninitialized marker.
func (v Value) IsUninitialized() bool { return v == Uninitialized }

// IsObject reports whether the value references an object.
func (v Value) IsObject() bool { return v.Type() == TypeObject }

// IsString reports whether the value holds a string handle.
func (v Value) IsString() bool { return v.Type() == TypeString }

// AsInteger unpacks a TypeInteger payload.
func (v Value) AsInteger() int32 {
	return int32(v) >> valueTypeBits
}

// AsStringHandle unpacks a TypeString payload.
func (v Value) AsStringHandle() StringHandle {
	return StringHandle(v.payload())
}

// AsObjectPointer unpacks a TypeObject payload.
func (v Value) AsObjectPointer() jmem.Pointer {
	return jmem.Pointer(v.payload())
}

func (v Value) asErrorRefPointer() jmem.Pointer {
	return jmem.Pointer(v.payload())
}

// CopyValue takes a reference on the value's referent, if any, and returns
// the value.
func (ctx *Context) CopyValue(v Value) Value {
	switch v.Type() {
	case TypeString:
		ctx.RefString(v.AsStringHandle())
	case TypeObject:
		ctx.RefObject(v.AsObjectPointer())
	}
	return v
}

// CopyValueIfNotObject is CopyValue except that object values are returned
// without taking a reference; object lifetime is the garbage collector's
// business.
func (ctx *Context) CopyValueIfNotObject(v Value) Value {
	if v.Type() == TypeString {
		ctx.RefString(v.AsStringHandle())
	}
	return v
}

// FreeValue releases the reference held by the value, if any.
func (ctx *Context) FreeValue(v Value) {
	switch v.Type() {
	case TypeString:
		ctx.DerefString(v.AsStringHandle())
	case TypeObject:
		ctx.DerefObject(v.AsObjectPointer())
	}
}

// FreeValueIfNotObject releases non-object references only.
func (ctx *Context) FreeValueIfNotObject(v Value) {
	if v.Type() == TypeString {
		ctx.DerefString(v.AsStringHandle())
	}
}
