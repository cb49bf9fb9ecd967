package ecma

import (
	"strconv"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// StringHandle is an opaque reference to a property name. The low two bits
// carry the name type; a zero type means the handle is an indirect
// reference (a compressed pointer to an interned string record), any other
// type means the name is a direct string whose payload is stored inline.
type StringHandle uint32

// Name types. The same values are stored in property records so that a
// name match stays a single (payload, type) comparison.
const (
	NameTypePointer uint8 = 0
	NameTypeMagic   uint8 = 1
	NameTypeUInt    uint8 = 2
)

const (
	nameTypeBits = 2
	nameTypeMask = (1 << nameTypeBits) - 1

	// Largest integer name that stays a direct string. Longer numeric
	// names fall back to the intern table.
	directUintMax = 1<<23 - 1
)

// Magic string ids. Ids below FirstInternalMagic name engine-known public
// strings; ids at or above it are reserved for internal properties and
// never collide with script-visible names.
const (
	MagicEmpty uint32 = iota
	MagicLength
	MagicPrototype
	MagicConstructor
	MagicArguments
	MagicCaller
	MagicEval
	MagicUndefined
	MagicNull
	MagicTrue
	MagicFalse

	// FirstInternalMagic is the first engine-private magic id.
	FirstInternalMagic
)

const (
	// MagicDeleted fills the name of a deleted property slot.
	MagicDeleted uint32 = FirstInternalMagic + iota
	// MagicNativePointer names the internal native-pointer property.
	MagicNativePointer
	// MagicEnvironmentRecord names the internal environment bookkeeping
	// property of lexical environments.
	MagicEnvironmentRecord
)

var magicNames = []string{
	MagicEmpty:             "",
	MagicLength:            "length",
	MagicPrototype:         "prototype",
	MagicConstructor:       "constructor",
	MagicArguments:         "arguments",
	MagicCaller:            "caller",
	MagicEval:              "eval",
	MagicUndefined:         "undefined",
	MagicNull:              "null",
	MagicTrue:              "true",
	MagicFalse:             "false",
	MagicDeleted:           "<deleted>",
	MagicNativePointer:     "<native-pointer>",
	MagicEnvironmentRecord: "<environment-record>",
}

var magicIDs = func() map[string]uint32 {
	m := make(map[string]uint32, FirstInternalMagic)
	for id := uint32(0); id < FirstInternalMagic; id++ {
		m[magicNames[id]] = id
	}
	return m
}()

// stringRecord is the heap block behind an indirect string handle.
type stringRecord struct {
	bytes string
	hash  uint32
	refs  uint16
}

// MakeMagicString builds a direct handle for a magic id.
func MakeMagicString(id uint32) StringHandle {
	return StringHandle(id<<nameTypeBits | uint32(NameTypeMagic))
}

// MakeUIntString builds a direct handle for a small integer name.
func MakeUIntString(n uint32) StringHandle {
	if n > directUintMax {
		panic("ecma: integer name out of direct range")
	}
	return StringHandle(n<<nameTypeBits | uint32(NameTypeUInt))
}

func makePointerString(cp jmem.Pointer) StringHandle {
	return StringHandle(uint32(cp) << nameTypeBits)
}

// IsDirect reports whether the handle is a direct string.
func (h StringHandle) IsDirect() bool {
	return uint8(h)&nameTypeMask != NameTypePointer
}

// DirectType returns the name type of a direct handle.
func (h StringHandle) DirectType() uint8 {
	return uint8(h) & nameTypeMask
}

// DirectValue returns the inline payload of a direct handle.
func (h StringHandle) DirectValue() uint32 {
	return uint32(h) >> nameTypeBits
}

func (h StringHandle) pointer() jmem.Pointer {
	return jmem.Pointer(uint32(h) >> nameTypeBits)
}

// fnv1a is the hash applied to interned string bytes.
func fnv1a(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// parseUintName reports whether s spells a canonical non-negative integer
// (no leading zeros except "0" itself).
func parseUintName(s string) (uint32, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > directUintMax {
			return 0, false
		}
	}
	return uint32(n), true
}

// Intern returns the canonical handle for a name. Magic names and small
// integer names always get a direct handle, so two names with equal
// contents always compare equal as handles. Indirect handles carry a
// reference the caller owns.
func (ctx *Context) Intern(s string) StringHandle {
	if id, ok := magicIDs[s]; ok {
		return MakeMagicString(id)
	}
	if n, ok := parseUintName(s); ok {
		return MakeUIntString(n)
	}
	if cp, ok := ctx.strings[s]; ok {
		h := makePointerString(cp)
		ctx.RefString(h)
		return h
	}
	rec := &stringRecord{bytes: s, hash: fnv1a(s), refs: 1}
	cp := ctx.pools.Alloc(rec)
	ctx.strings[s] = cp
	return makePointerString(cp)
}

// RefString takes a reference on an indirect string. Direct strings carry
// no reference count.
func (ctx *Context) RefString(h StringHandle) {
	if h.IsDirect() {
		return
	}
	rec := jmem.Get[*stringRecord](ctx.heap, h.pointer())
	if rec.refs == maxUint16 {
		ctx.heap.Fatal(jmem.FatalRefCountLimit)
	}
	rec.refs++
}

// DerefString releases a reference on an indirect string, freeing the
// record when the last reference goes away.
func (ctx *Context) DerefString(h StringHandle) {
	if h.IsDirect() {
		return
	}
	cp := h.pointer()
	rec := jmem.Get[*stringRecord](ctx.heap, cp)
	rec.refs--
	if rec.refs == 0 {
		delete(ctx.strings, rec.bytes)
		ctx.pools.Free(cp)
	}
}

// Hash returns the lookup hash of a name. Direct strings hash to their
// inline payload; indirect strings use the hash cached at intern time.
func (ctx *Context) Hash(h StringHandle) uint32 {
	if h.IsDirect() {
		return h.DirectValue()
	}
	return jmem.Get[*stringRecord](ctx.heap, h.pointer()).hash
}

// EqualNonDirect compares two indirect strings by content.
func (ctx *Context) EqualNonDirect(a, b StringHandle) bool {
	if a.pointer() == b.pointer() {
		return true
	}
	ra := jmem.Get[*stringRecord](ctx.heap, a.pointer())
	rb := jmem.Get[*stringRecord](ctx.heap, b.pointer())
	return ra.hash == rb.hash && ra.bytes == rb.bytes
}

// StringOf renders a handle for iteration results and diagnostics.
func (ctx *Context) StringOf(h StringHandle) string {
	switch h.DirectType() {
	case NameTypeMagic:
		return magicNames[h.DirectValue()]
	case NameTypeUInt:
		return strconv.FormatUint(uint64(h.DirectValue()), 10)
	default:
		return jmem.Get[*stringRecord](ctx.heap, h.pointer()).bytes
	}
}

// stringToPropertyName splits a handle into the (payload, type) pair stored
// in a property record, taking a reference for indirect names.
func (ctx *Context) stringToPropertyName(h StringHandle) (jmem.Pointer, uint8) {
	if h.IsDirect() {
		return jmem.Pointer(h.DirectValue()), h.DirectType()
	}
	ctx.RefString(h)
	return h.pointer(), NameTypePointer
}

// propertyNameParts splits a handle without taking a reference; used on
// pure lookup paths.
func propertyNameParts(h StringHandle) (jmem.Pointer, uint8) {
	if h.IsDirect() {
		return jmem.Pointer(h.DirectValue()), h.DirectType()
	}
	return h.pointer(), NameTypePointer
}

const maxUint16 = 0xFFFF
