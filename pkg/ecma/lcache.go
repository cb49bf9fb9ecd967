package ecma

import (
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// The lookup cache is a direct-mapped, row-associative shortcut from an
// (object, name) pair to a property slot, shared by every object of the
// context. It is a best-effort accelerator: every entry can be dropped at
// any time without affecting correctness.
type lookupCacheEntry struct {
	// id packs the object and name pointers; 0 means the entry is empty.
	id        uint64
	propIndex PropertyIndex
}

type lookupCache struct {
	rows    int
	rowLen  int
	entries []lookupCacheEntry

	hits   uint64
	misses uint64
}

const lcachePointerBits = 32

func newLookupCache(rows, rowLen int) *lookupCache {
	if rows <= 0 {
		rows = 128
	}
	if rows&(rows-1) != 0 {
		panic("ecma: lookup cache row count must be a power of two")
	}
	if rowLen <= 0 {
		rowLen = 2
	}
	return &lookupCache{
		rows:    rows,
		rowLen:  rowLen,
		entries: make([]lookupCacheEntry, rows*rowLen),
	}
}

func lcacheEntryID(objectCP, nameCP jmem.Pointer) uint64 {
	return uint64(objectCP)<<lcachePointerBits | uint64(nameCP)
}

// rowIndex mixes the name pointer with the object pointer so properties of
// different objects with the same name spread over distinct rows.
func (lc *lookupCache) rowIndex(objectCP, nameCP jmem.Pointer) int {
	return int((nameCP ^ objectCP) & jmem.Pointer(lc.rows-1))
}

// lcacheInsert records a resolved (object, name) pair. A full row evicts
// its last entry; the evicted record loses its cached flag and, when the
// owner has no hashmap, its slot index is restored into the owner's MRU
// hints.
func (ctx *Context) lcacheInsert(objCP jmem.Pointer, prop *Property, index PropertyIndex) {
	lc := ctx.lcache
	row := lc.rowIndex(objCP, prop.nameCP)
	base := row * lc.rowLen

	slot := -1
	for i := 0; i < lc.rowLen; i++ {
		if lc.entries[base+i].id == 0 {
			slot = base + i
			break
		}
	}

	if slot < 0 {
		last := base + lc.rowLen - 1
		ctx.lcacheEvict(&lc.entries[last])

		// Shift the remaining entries toward the end; the freshest
		// resolution takes the front of the row.
		for i := last; i > base; i-- {
			lc.entries[i] = lc.entries[i-1]
			if lc.entries[i].id != 0 {
				ctx.lcacheRecordOf(&lc.entries[i]).lcacheID = uint16(i)
			}
		}
		slot = base
	}

	lc.entries[slot] = lookupCacheEntry{id: lcacheEntryID(objCP, prop.nameCP), propIndex: index}
	prop.setLCached(true)
	prop.lcacheID = uint16(slot)
}

// lcacheEvict invalidates a victim entry: the record's cached flag is
// cleared and, unless the owning list has a hashmap, its index is parked
// back in the list's MRU hints so the next miss still finds it quickly.
func (ctx *Context) lcacheEvict(entry *lookupCacheEntry) {
	if entry.id == 0 {
		return
	}
	objCP := jmem.Pointer(entry.id >> lcachePointerBits)
	obj := ctx.object(objCP)
	list := ctx.propertyList(obj.propertyListCP)

	prop := list.at(entry.propIndex)
	prop.setLCached(false)

	if list.hashmapCP == jmem.Null {
		for j := ctx.propertyCacheSize - 1; j > 0; j-- {
			list.cache[j] = list.cache[j-1]
		}
		list.cache[0] = entry.propIndex
	}
	entry.id = 0
}

// lcacheRecordOf resolves the property record an entry points at.
func (ctx *Context) lcacheRecordOf(entry *lookupCacheEntry) *Property {
	objCP := jmem.Pointer(entry.id >> lcachePointerBits)
	obj := ctx.object(objCP)
	list := ctx.propertyList(obj.propertyListCP)
	return list.at(entry.propIndex)
}

// lcacheLookup resolves a name through the cache. The slot index is always
// resolved against the object's current property list, and the name type
// is verified against the record to guard against direct/indirect
// confusion of equal payloads.
func (ctx *Context) lcacheLookup(objCP jmem.Pointer, obj *Object, name StringHandle) *Property {
	if obj.propertyListCP == jmem.Null {
		return nil
	}
	lc := ctx.lcache

	nameCP, nameType := propertyNameParts(name)
	row := lc.rowIndex(objCP, nameCP)
	base := row * lc.rowLen
	id := lcacheEntryID(objCP, nameCP)

	for i := 0; i < lc.rowLen; i++ {
		entry := &lc.entries[base+i]
		if entry.id != id {
			continue
		}
		debugAssert(entry.propIndex != IndexInvalid, "cached entry without a slot index")

		list := ctx.propertyList(obj.propertyListCP)
		prop := list.at(entry.propIndex)
		if prop.nameType == nameType {
			lc.hits++
			return prop
		}
	}
	lc.misses++
	return nil
}

// lcacheInvalidate removes the entry of a cached record. The record must
// carry the cached flag; both the entry and the flag are cleared together.
func (ctx *Context) lcacheInvalidate(objCP jmem.Pointer, prop *Property) {
	debugAssert(prop.isLCached(), "invalidate on a non-cached property")
	lc := ctx.lcache

	entry := &lc.entries[prop.lcacheID]
	ctx.debugAssert(entry.id == lcacheEntryID(objCP, prop.nameCP), "lookup cache entry mismatch")

	entry.id = 0
	prop.setLCached(false)
}

// LookupCacheStats reports hit/miss counters of the context's lookup
// cache; zeros when the cache is disabled.
func (ctx *Context) LookupCacheStats() (hits, misses uint64) {
	if ctx.lcache == nil {
		return 0, 0
	}
	return ctx.lcache.hits, ctx.lcache.misses
}

// LookupCacheEntryCount reports the number of occupied entries.
func (ctx *Context) LookupCacheEntryCount() int {
	if ctx.lcache == nil {
		return 0
	}
	n := 0
	for i := range ctx.lcache.entries {
		if ctx.lcache.entries[i].id != 0 {
			n++
		}
	}
	return n
}
