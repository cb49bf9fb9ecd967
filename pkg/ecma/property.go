package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// PropertyIndex is the 1-based position of a slot within a property list.
// Index 0 is invalid.
type PropertyIndex uint32

// IndexInvalid marks an unset property index.
const IndexInvalid PropertyIndex = 0

// PropertyKind classifies a property slot.
type PropertyKind uint8

const (
	KindSpecial PropertyKind = iota
	KindNamedData
	KindNamedAccessor
	KindInternal
	KindVirtual
	KindDeleted
)

// Property type_flags layout: the kind occupies the low three bits, the
// attribute and bookkeeping flags the rest of the byte.
const (
	kindMask uint8 = 0x07

	// FlagConfigurable marks a property that can be deleted or redefined.
	FlagConfigurable uint8 = 1 << 3
	// FlagEnumerable marks a property visited by enumeration.
	FlagEnumerable uint8 = 1 << 4
	// FlagWritable marks a named data property whose value can change.
	FlagWritable uint8 = 1 << 5
	// flagLCached marks a slot with a live lookup cache entry.
	flagLCached uint8 = 1 << 6

	// AttributeMask selects the three script-visible attributes.
	AttributeMask = FlagConfigurable | FlagEnumerable | FlagWritable
)

// GetterSetterPair holds the accessor callables as compressed object
// pointers; either may be Null.
type GetterSetterPair struct {
	Getter jmem.Pointer
	Setter jmem.Pointer
}

// Property is one slot of a property list. The name is stored as a
// (payload, type) pair mirroring the string handle encoding: for an
// indirect name nameCP is a compressed string pointer, for a direct name
// it is the inline payload. The value payload serves data, virtual and
// internal properties; accessors keep their pair either inline or behind
// a pooled allocation, depending on the configured pointer width.
type Property struct {
	typeFlags uint8
	nameType  uint8
	lcacheID  uint16
	nameCP    jmem.Pointer

	value  Value
	pair   GetterSetterPair
	pairCP jmem.Pointer
}

// Kind returns the slot's property kind.
func (p *Property) Kind() PropertyKind {
	return PropertyKind(p.typeFlags & kindMask)
}

// NameType returns the slot's name type.
func (p *Property) NameType() uint8 {
	return p.nameType
}

// IsNamed reports whether the slot holds a live named property.
func (p *Property) IsNamed() bool {
	k := p.Kind()
	return k == KindNamedData || k == KindNamedAccessor
}

// Value returns the payload of a data, virtual or internal property.
func (p *Property) Value() Value {
	debugAssert(p.Kind() == KindNamedData || p.Kind() == KindVirtual || p.Kind() == KindInternal,
		"value read on non-data property")
	return p.value
}

// IsWritable reports the writable attribute. Valid for named data and
// virtual properties; virtual properties are never writable.
func (p *Property) IsWritable() bool {
	debugAssert(p.Kind() == KindNamedData || p.Kind() == KindVirtual,
		"writable query on non-data property")
	return p.typeFlags&FlagWritable != 0
}

// SetWritable updates the writable attribute of a named data property.
func (p *Property) SetWritable(writable bool) {
	debugAssert(p.Kind() == KindNamedData, "writable update on non-data property")
	p.setFlag(FlagWritable, writable)
}

// IsEnumerable reports the enumerable attribute.
func (p *Property) IsEnumerable() bool {
	debugAssert(p.IsNamed() || p.Kind() == KindVirtual,
		"enumerable query on unnamed property")
	return p.typeFlags&FlagEnumerable != 0
}

// SetEnumerable updates the enumerable attribute of a named property.
func (p *Property) SetEnumerable(enumerable bool) {
	debugAssert(p.IsNamed(), "enumerable update on unnamed property")
	p.setFlag(FlagEnumerable, enumerable)
}

// IsConfigurable reports the configurable attribute.
func (p *Property) IsConfigurable() bool {
	debugAssert(p.IsNamed() || p.Kind() == KindVirtual,
		"configurable query on unnamed property")
	return p.typeFlags&FlagConfigurable != 0
}

// SetConfigurable updates the configurable attribute of a named property.
func (p *Property) SetConfigurable(configurable bool) {
	debugAssert(p.IsNamed(), "configurable update on unnamed property")
	p.setFlag(FlagConfigurable, configurable)
}

func (p *Property) setFlag(flag uint8, on bool) {
	if on {
		p.typeFlags |= flag
	} else {
		p.typeFlags &^= flag
	}
}

func (p *Property) isLCached() bool {
	return p.typeFlags&flagLCached != 0
}

func (p *Property) setLCached(on bool) {
	p.setFlag(flagLCached, on)
}

// AccessorPair returns the getter/setter pair of a named accessor
// property. With 32-bit pointers the pair lives behind a pooled
// allocation; with 16-bit pointers it is stored inline.
func (ctx *Context) AccessorPair(p *Property) *GetterSetterPair {
	debugAssert(p.Kind() == KindNamedAccessor, "accessor pair on non-accessor property")
	if ctx.config.PointerWidth == jmem.Width32 {
		return jmem.Get[*GetterSetterPair](ctx.heap, p.pairCP)
	}
	return &p.pair
}

// SetAccessorGetter replaces the getter of a named accessor property.
func (ctx *Context) SetAccessorGetter(p *Property, getter jmem.Pointer) {
	ctx.AccessorPair(p).Getter = getter
}

// SetAccessorSetter replaces the setter of a named accessor property.
func (ctx *Context) SetAccessorSetter(p *Property, setter jmem.Pointer) {
	ctx.AccessorPair(p).Setter = setter
}

func (ctx *Context) allocAccessorPayload(p *Property, getter, setter jmem.Pointer) {
	if ctx.config.PointerWidth == jmem.Width32 {
		p.pairCP = ctx.pools.Alloc(&GetterSetterPair{Getter: getter, Setter: setter})
		return
	}
	p.pair = GetterSetterPair{Getter: getter, Setter: setter}
}

func (ctx *Context) freeAccessorPayload(p *Property) {
	if ctx.config.PointerWidth == jmem.Width32 && p.pairCP != jmem.Null {
		ctx.pools.Free(p.pairCP)
		p.pairCP = jmem.Null
	}
}

// propertyNameHash returns the lookup hash of a slot's name.
func (ctx *Context) propertyNameHash(p *Property) uint32 {
	if p.nameType != NameTypePointer {
		return uint32(p.nameCP)
	}
	return jmem.Get[*stringRecord](ctx.heap, p.nameCP).hash
}

// PropertyName rebuilds the string handle of a slot's name. Indirect names
// are returned without taking a reference.
func (ctx *Context) PropertyName(p *Property) StringHandle {
	switch p.nameType {
	case NameTypeMagic:
		return MakeMagicString(uint32(p.nameCP))
	case NameTypeUInt:
		return MakeUIntString(uint32(p.nameCP))
	default:
		return makePointerString(p.nameCP)
	}
}
