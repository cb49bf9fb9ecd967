package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// propertyList is the authoritative per-object property store: a header
// followed by the slot array. count is monotonic; deleted slots keep their
// position. The MRU hints and the hashmap head are separate fields (the
// original overloaded cache[0] as the hashmap presence flag; the split
// keeps the same information without the sentinel).
type propertyList struct {
	count     PropertyIndex
	cache     [propertyCacheMax]PropertyIndex
	hashmapCP jmem.Pointer
	props     []Property
}

// propertyCacheMax is the widest MRU hint array; a context uses the first
// two or three entries depending on its pointer width.
const propertyCacheMax = 3

func (l *propertyList) at(i PropertyIndex) *Property {
	return &l.props[i-1]
}

// FindNamedProperty resolves a name to its property slot on one object.
// Resolution order: lookup cache, hashmap, MRU hints, linear scan. Returns
// nil when the object has no such property.
func (ctx *Context) FindNamedProperty(objCP jmem.Pointer, name StringHandle) *Property {
	obj := ctx.object(objCP)

	if ctx.config.LookupCacheEnabled {
		if prop := ctx.lcacheLookup(objCP, obj, name); prop != nil {
			return prop
		}
	}

	if obj.propertyListCP == jmem.Null {
		return nil
	}
	list := ctx.propertyList(obj.propertyListCP)

	if ctx.config.HashmapEnabled && list.hashmapCP != jmem.Null {
		return ctx.hashmapFind(objCP, list, name)
	}

	nameCP, nameType := propertyNameParts(name)

	if list.count > PropertyIndex(ctx.propertyCacheSize) {
		for i := 0; i < ctx.propertyCacheSize; i++ {
			idx := list.cache[i]
			if idx == IndexInvalid || idx > list.count {
				continue
			}
			prop := list.at(idx)
			if prop.nameCP == nameCP && prop.nameType == nameType {
				return prop
			}
		}
	}

	var found *Property
	var foundIdx PropertyIndex

	if name.IsDirect() {
		for i := PropertyIndex(1); i <= list.count; i++ {
			prop := list.at(i)
			if prop.nameCP == nameCP && prop.nameType == nameType {
				found, foundIdx = prop, i
				break
			}
		}
	} else {
		for i := PropertyIndex(1); i <= list.count; i++ {
			prop := list.at(i)
			if prop.nameType != NameTypePointer {
				continue
			}
			if prop.nameCP == nameCP || ctx.EqualNonDirect(makePointerString(prop.nameCP), name) {
				found, foundIdx = prop, i
				break
			}
		}
	}

	if found == nil {
		return nil
	}

	for j := ctx.propertyCacheSize - 1; j > 0; j-- {
		list.cache[j] = list.cache[j-1]
	}
	list.cache[0] = foundIdx

	if ctx.config.LookupCacheEnabled && !found.isLCached() {
		ctx.lcacheInsert(objCP, found, foundIdx)
	}
	return found
}

// createProperty appends a slot to the object's property list, creating
// the list on first insertion. A mandatory allocation failure aborts the
// enclosing operation through the heap's fatal path, leaving the list in
// its pre-call state.
func (ctx *Context) createProperty(objCP jmem.Pointer, name StringHandle, typeFlags uint8) *Property {
	obj := ctx.object(objCP)

	var list *propertyList
	if obj.propertyListCP == jmem.Null {
		list = &propertyList{}
		obj.propertyListCP = ctx.heap.Alloc(list)
	} else {
		list = ctx.propertyList(obj.propertyListCP)
	}

	list.props = append(list.props, Property{})
	list.count++
	index := list.count

	prop := list.at(index)
	prop.nameCP, prop.nameType = ctx.stringToPropertyName(name)
	prop.typeFlags = typeFlags
	prop.lcacheID = 0
	prop.value = Undefined

	if ctx.config.HashmapEnabled {
		if list.hashmapCP != jmem.Null {
			ctx.hashmapInsert(list, name, index)
		} else if list.count >= PropertyIndex(ctx.config.MinimumHashmapSize) {
			ctx.hashmapCreate(list)
		}
	}
	return prop
}

// CreateNamedDataProperty creates a named data property with the given
// attributes and an undefined value. The name must not be present.
func (ctx *Context) CreateNamedDataProperty(objCP jmem.Pointer, name StringHandle, attrs uint8) *Property {
	debugAssert(attrs&^AttributeMask == 0, "invalid data property attributes")
	if ctx.assertions {
		ctx.debugAssert(ctx.FindNamedProperty(objCP, name) == nil, "property already present")
	}

	return ctx.createProperty(objCP, name, uint8(KindNamedData)|attrs)
}

// CreateNamedAccessorProperty creates a named accessor property with the
// given getter/setter objects (either may be Null). The name must not be
// present.
func (ctx *Context) CreateNamedAccessorProperty(objCP jmem.Pointer, name StringHandle,
	getterCP, setterCP jmem.Pointer, attrs uint8) *Property {
	debugAssert(attrs&^(FlagConfigurable|FlagEnumerable) == 0, "invalid accessor property attributes")
	if ctx.assertions {
		ctx.debugAssert(ctx.FindNamedProperty(objCP, name) == nil, "property already present")
	}

	prop := ctx.createProperty(objCP, name, uint8(KindNamedAccessor)|attrs)
	ctx.allocAccessorPayload(prop, getterCP, setterCP)
	return prop
}

// CreateInternalProperty creates an engine-private property keyed by an
// internal magic id.
func (ctx *Context) CreateInternalProperty(objCP jmem.Pointer, magicID uint32, value Value) *Property {
	debugAssert(magicID >= FirstInternalMagic, "internal property needs an internal magic name")

	prop := ctx.createProperty(objCP, MakeMagicString(magicID), uint8(KindInternal))
	prop.value = value
	return prop
}

// MakeVirtualProperty builds a detached read-only property record for a
// computed value; virtual properties are never stored in a list.
func MakeVirtualProperty(value Value, attrs uint8) Property {
	debugAssert(attrs&^(FlagConfigurable|FlagEnumerable) == 0, "invalid virtual property attributes")
	return Property{typeFlags: uint8(KindVirtual) | attrs, value: value}
}

// GetNamedDataProperty fetches a property that is known to exist and to be
// a named data property.
func (ctx *Context) GetNamedDataProperty(objCP jmem.Pointer, name StringHandle) *Property {
	prop := ctx.FindNamedProperty(objCP, name)
	debugAssert(prop != nil && prop.Kind() == KindNamedData, "named data property expected")
	return prop
}

// AssignNamedDataValue replaces the value of a named data property,
// releasing the previous value's reference.
func (ctx *Context) AssignNamedDataValue(objCP jmem.Pointer, prop *Property, value Value) {
	ctx.assertContainsProperty(objCP, prop, KindNamedData)

	ctx.FreeValueIfNotObject(prop.value)
	prop.value = ctx.CopyValueIfNotObject(value)
}

// DeleteProperty removes a property located by pointer identity: the slot
// is marked deleted, the hashmap is notified (and rebuilt on demand), and
// any lookup cache entry is invalidated. Slot storage is not reclaimed.
func (ctx *Context) DeleteProperty(objCP jmem.Pointer, target *Property) {
	obj := ctx.object(objCP)
	if obj.propertyListCP == jmem.Null {
		return
	}
	list := ctx.propertyList(obj.propertyListCP)

	status := hashmapDeleteNoHashmap
	if ctx.config.HashmapEnabled && list.hashmapCP != jmem.Null {
		status = hashmapDeleteHasHashmap
	}

	for i := PropertyIndex(1); i <= list.count; i++ {
		prop := list.at(i)
		if prop != target {
			continue
		}
		debugAssert(prop.Kind() != KindSpecial, "special property in list")

		if status == hashmapDeleteHasHashmap {
			status = ctx.hashmapDelete(list, prop, i)
		}

		ctx.FreeProperty(objCP, prop)
		prop.typeFlags = uint8(KindDeleted)
		prop.nameType = NameTypeMagic
		prop.nameCP = jmem.Pointer(MagicDeleted)

		if status == hashmapDeleteRecreate {
			ctx.hashmapFree(list)
			ctx.hashmapCreate(list)
		}
		return
	}
}

// DeletePropertyChecked is the interpreter-facing delete: it refuses
// non-configurable properties before the core delete runs. Deleting an
// absent property succeeds.
func (ctx *Context) DeletePropertyChecked(objCP jmem.Pointer, name StringHandle) bool {
	prop := ctx.FindNamedProperty(objCP, name)
	if prop == nil {
		return true
	}
	if !prop.IsConfigurable() {
		return false
	}
	ctx.DeleteProperty(objCP, prop)
	return true
}

// FreeProperty releases a property's payload and bookkeeping: accessor
// side allocations, the lookup cache entry, and the name reference.
func (ctx *Context) FreeProperty(objCP jmem.Pointer, prop *Property) {
	switch prop.Kind() {
	case KindNamedData:
		ctx.FreeValueIfNotObject(prop.value)
	case KindNamedAccessor:
		ctx.freeAccessorPayload(prop)
	default:
		debugAssert(prop.Kind() == KindInternal, "unexpected property kind in FreeProperty")
		debugAssert(prop.nameType == NameTypeMagic && uint32(prop.nameCP) >= FirstInternalMagic,
			"internal property must have an internal magic name")
	}

	if ctx.config.LookupCacheEnabled && prop.isLCached() {
		ctx.lcacheInvalidate(objCP, prop)
	}

	if prop.nameType == NameTypePointer {
		ctx.DerefString(makePointerString(prop.nameCP))
	}
}

// CloneDeclarativeEnvironment creates a new declarative environment with
// the same names and attributes. Values are copied when copyValues is set
// (object values are shared); otherwise the new bindings are left
// uninitialized. The reference on the source environment is released.
func (ctx *Context) CloneDeclarativeEnvironment(envCP jmem.Pointer, copyValues bool) jmem.Pointer {
	env := ctx.object(envCP)
	debugAssert(env.IsLexicalEnvironment() && env.Type() == LexEnvDeclarative,
		"declarative environment expected")

	newEnvCP := ctx.CreateDeclEnv(env.OuterReference())

	if env.propertyListCP != jmem.Null {
		list := ctx.propertyList(env.propertyListCP)
		for i := PropertyIndex(1); i <= list.count; i++ {
			prop := list.at(i)
			if prop.Kind() == KindDeleted {
				continue
			}
			debugAssert(prop.Kind() == KindNamedData, "declarative environments hold data properties only")

			name := ctx.PropertyName(prop)
			newProp := ctx.CreateNamedDataProperty(newEnvCP, name, prop.typeFlags&AttributeMask)
			if copyValues {
				newProp.value = ctx.CopyValueIfNotObject(prop.value)
			} else {
				newProp.value = Uninitialized
			}
		}
	}

	ctx.DerefObject(envCP)
	return newEnvCP
}

// ForEachProperty visits the live slots of an object in slot order.
func (ctx *Context) ForEachProperty(objCP jmem.Pointer, fn func(index PropertyIndex, prop *Property) bool) {
	obj := ctx.object(objCP)
	if obj.propertyListCP == jmem.Null {
		return
	}
	list := ctx.propertyList(obj.propertyListCP)
	for i := PropertyIndex(1); i <= list.count; i++ {
		prop := list.at(i)
		if prop.Kind() == KindDeleted {
			continue
		}
		if !fn(i, prop) {
			return
		}
	}
}

// OwnEnumerableKeys returns the enumerable own property names in insertion
// order.
func (ctx *Context) OwnEnumerableKeys(objCP jmem.Pointer) []string {
	var keys []string
	ctx.ForEachProperty(objCP, func(_ PropertyIndex, prop *Property) bool {
		if prop.IsNamed() && prop.IsEnumerable() {
			keys = append(keys, ctx.StringOf(ctx.PropertyName(prop)))
		}
		return true
	})
	return keys
}

// OwnPropertyNames returns every named own property in insertion order,
// including non-enumerable ones.
func (ctx *Context) OwnPropertyNames(objCP jmem.Pointer) []string {
	var keys []string
	ctx.ForEachProperty(objCP, func(_ PropertyIndex, prop *Property) bool {
		if prop.IsNamed() {
			keys = append(keys, ctx.StringOf(ctx.PropertyName(prop)))
		}
		return true
	})
	return keys
}

// PropertyCount returns the number of live properties on the object.
func (ctx *Context) PropertyCount(objCP jmem.Pointer) int {
	n := 0
	ctx.ForEachProperty(objCP, func(PropertyIndex, *Property) bool { n++; return true })
	return n
}

// HasHashmap reports whether a property hashmap is attached to the object.
func (ctx *Context) HasHashmap(objCP jmem.Pointer) bool {
	obj := ctx.object(objCP)
	if obj.propertyListCP == jmem.Null {
		return false
	}
	return ctx.propertyList(obj.propertyListCP).hashmapCP != jmem.Null
}

// assertContainsProperty is the debug sweep verifying that a property
// record belongs to the object and has the expected kind.
func (ctx *Context) assertContainsProperty(objCP jmem.Pointer, target *Property, kind PropertyKind) {
	if !ctx.assertions {
		return
	}
	obj := ctx.object(objCP)
	ctx.debugAssert(obj.propertyListCP != jmem.Null, "object has no property list")
	list := ctx.propertyList(obj.propertyListCP)
	for i := PropertyIndex(1); i <= list.count; i++ {
		if list.at(i) == target {
			ctx.debugAssert(target.Kind() == kind, "unexpected property kind")
			return
		}
	}
	ctx.debugAssert(false, "property does not belong to the object")
}
