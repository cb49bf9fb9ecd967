package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// Object type_flags_refs layout: the type in the low bits, the lexical
// environment and extensible flags above it, and the reference counter in
// the remaining high bits.
const (
	objectTypeMask uint16 = 0x0F

	objectFlagLexEnv     uint16 = 1 << 4
	objectFlagExtensible uint16 = 1 << 5

	objectRefOne uint16 = 1 << 6
	objectMaxRef uint16 = 0xFFFF &^ (objectRefOne - 1)
)

// ObjectType is the implementation-defined object classification.
type ObjectType uint16

const (
	ObjectTypeGeneral ObjectType = iota
	ObjectTypeClass
	ObjectTypeFunction
	ObjectTypeArray
)

// Lexical environment types, stored in the type bits together with the
// lexical environment flag.
const (
	LexEnvDeclarative ObjectType = iota
	LexEnvThisObjectBound
)

// Object is the fixed-size object record. propertyListCP is the property
// list head, u2 the prototype for ordinary objects or the outer reference for
// lexical environments.
type Object struct {
	typeFlagsRefs  uint16
	propertyListCP jmem.Pointer
	u2             jmem.Pointer
}

// CreateObject allocates an object with the given prototype (Null for
// none). The reference counter starts at one.
func (ctx *Context) CreateObject(prototypeCP jmem.Pointer, objType ObjectType) jmem.Pointer {
	obj := &Object{
		typeFlagsRefs: uint16(objType) | objectFlagExtensible | objectRefOne,
		u2:            prototypeCP,
	}
	return ctx.pools.Alloc(obj)
}

// CreateDeclEnv allocates a declarative lexical environment with the given
// outer environment (Null if not nested).
func (ctx *Context) CreateDeclEnv(outerCP jmem.Pointer) jmem.Pointer {
	env := &Object{
		typeFlagsRefs: uint16(LexEnvDeclarative) | objectFlagLexEnv | objectRefOne,
		u2:            outerCP,
	}
	return ctx.pools.Alloc(env)
}

// IsLexicalEnvironment reports whether the record is a lexical environment.
func (o *Object) IsLexicalEnvironment() bool {
	return o.typeFlagsRefs&objectFlagLexEnv != 0
}

// Type returns the object's implementation type.
func (o *Object) Type() ObjectType {
	return ObjectType(o.typeFlagsRefs & objectTypeMask)
}

// IsExtensible reports the extensible flag. Always false for lexical
// environments, which never carry the flag.
func (o *Object) IsExtensible() bool {
	return o.typeFlagsRefs&objectFlagExtensible != 0
}

// SetExtensible sets the extensible flag. Clearing is permanent; attempts
// to restore it are ignored.
func (o *Object) SetExtensible(extensible bool) {
	if !extensible {
		o.typeFlagsRefs &^= objectFlagExtensible
	}
}

// Prototype returns the prototype pointer of an ordinary object.
func (o *Object) Prototype() jmem.Pointer {
	debugAssert(!o.IsLexicalEnvironment(), "prototype of a lexical environment")
	return o.u2
}

// OuterReference returns the outer environment of a lexical environment.
func (o *Object) OuterReference() jmem.Pointer {
	debugAssert(o.IsLexicalEnvironment(), "outer reference of an ordinary object")
	return o.u2
}

// RefObject increments the object's reference counter. Saturation is
// fatal: the engine cannot track more references than the counter holds.
func (ctx *Context) RefObject(objCP jmem.Pointer) {
	obj := ctx.object(objCP)
	if obj.typeFlagsRefs >= objectMaxRef {
		ctx.heap.Fatal(jmem.FatalRefCountLimit)
	}
	obj.typeFlagsRefs += objectRefOne
}

// DerefObject decrements the reference counter and reclaims the object
// when it reaches zero. Reclamation is the GC-initiated teardown path: the
// property list is torn down slot by slot and no other core operation is
// in progress on the object.
func (ctx *Context) DerefObject(objCP jmem.Pointer) {
	obj := ctx.object(objCP)
	debugAssert(obj.typeFlagsRefs >= objectRefOne, "object refcount underflow")
	obj.typeFlagsRefs -= objectRefOne
	if obj.typeFlagsRefs >= objectRefOne {
		return
	}
	ctx.freePropertyListOf(objCP, obj)
	ctx.pools.Free(objCP)
}

func (ctx *Context) freePropertyListOf(objCP jmem.Pointer, obj *Object) {
	if obj.propertyListCP == jmem.Null {
		return
	}
	list := ctx.propertyList(obj.propertyListCP)
	for i := PropertyIndex(1); i <= list.count; i++ {
		prop := list.at(i)
		if prop.Kind() != KindDeleted {
			ctx.FreeProperty(objCP, prop)
		}
	}
	if list.hashmapCP != jmem.Null {
		ctx.hashmapFree(list)
	}
	ctx.heap.Free(obj.propertyListCP)
	obj.propertyListCP = jmem.Null
}
