package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// PropertyDescriptor is the interpreter-facing snapshot of a property.
// The flags word records which fields are defined; undefined fields keep
// their zero values.
type PropertyDescriptor struct {
	flags  uint16
	Value  Value
	Getter jmem.Pointer
	Setter jmem.Pointer
}

// Descriptor flags.
const (
	DescHasValue uint16 = 1 << iota
	DescHasGetter
	DescHasSetter
	DescHasWritable
	DescHasEnumerable
	DescHasConfigurable
	DescWritable
	DescEnumerable
	DescConfigurable
)

// MakeEmptyPropertyDescriptor returns a descriptor with every field
// undefined.
func MakeEmptyPropertyDescriptor() PropertyDescriptor {
	return PropertyDescriptor{Value: Undefined}
}

// Has reports whether a defined-flag is set.
func (d *PropertyDescriptor) Has(flag uint16) bool {
	return d.flags&flag != 0
}

// IsWritable reports the captured writable attribute.
func (d *PropertyDescriptor) IsWritable() bool { return d.flags&DescWritable != 0 }

// IsEnumerable reports the captured enumerable attribute.
func (d *PropertyDescriptor) IsEnumerable() bool { return d.flags&DescEnumerable != 0 }

// IsConfigurable reports the captured configurable attribute.
func (d *PropertyDescriptor) IsConfigurable() bool { return d.flags&DescConfigurable != 0 }

// GetOwnPropertyDescriptor captures the descriptor of an own property.
// The returned descriptor owns a reference on a captured value; release
// it with FreePropertyDescriptor.
func (ctx *Context) GetOwnPropertyDescriptor(objCP jmem.Pointer, name StringHandle) (PropertyDescriptor, bool) {
	prop := ctx.FindNamedProperty(objCP, name)
	if prop == nil {
		return MakeEmptyPropertyDescriptor(), false
	}

	desc := MakeEmptyPropertyDescriptor()
	desc.flags = DescHasEnumerable | DescHasConfigurable
	if prop.IsEnumerable() {
		desc.flags |= DescEnumerable
	}
	if prop.IsConfigurable() {
		desc.flags |= DescConfigurable
	}

	switch prop.Kind() {
	case KindNamedData:
		desc.flags |= DescHasValue | DescHasWritable
		desc.Value = ctx.CopyValueIfNotObject(prop.value)
		if prop.IsWritable() {
			desc.flags |= DescWritable
		}
	case KindNamedAccessor:
		pair := ctx.AccessorPair(prop)
		if pair.Getter != jmem.Null {
			desc.flags |= DescHasGetter
			desc.Getter = pair.Getter
		}
		if pair.Setter != jmem.Null {
			desc.flags |= DescHasSetter
			desc.Setter = pair.Setter
		}
	default:
		debugAssert(false, "descriptor of an unnamed property")
	}
	return desc, true
}

// FreePropertyDescriptor releases the references held by a descriptor and
// resets it to the empty state.
func (ctx *Context) FreePropertyDescriptor(desc *PropertyDescriptor) {
	if desc.Has(DescHasValue) {
		ctx.FreeValueIfNotObject(desc.Value)
	}
	*desc = MakeEmptyPropertyDescriptor()
}
