package ecma

import (
	"math"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// The property hashmap is an open-addressed index over the property list.
// Each cell holds the 1-based slot index of a property, or one of two
// sentinels: clean cells were never used, dirty cells are tombstones left
// by deletion. A probe stops at a clean cell but walks through dirty ones.
const (
	hashmapCellClean PropertyIndex = math.MaxUint32
	hashmapCellDirty PropertyIndex = math.MaxUint32 - 1
)

// hashmapSteps are the probe increments, selected by the low bits of the
// hash. Every step is an odd prime, coprime with the power-of-two table
// size, so a probe sequence visits each cell exactly once.
var hashmapSteps = [8]uint32{3, 5, 7, 11, 13, 17, 19, 23}

// PropertyHashmap is the accelerator header followed by its cells.
type PropertyHashmap struct {
	bucketCount   uint32
	propertyCount uint32
	nullCount     uint32
	unusedCount   uint32
	cells         []PropertyIndex
}

// BucketCount reports the table size; a diagnostics observable.
func (hm *PropertyHashmap) BucketCount() uint32 { return hm.bucketCount }

// PropertyCount reports the number of live entries.
func (hm *PropertyHashmap) PropertyCount() uint32 { return hm.propertyCount }

// UnusedCount reports the number of tombstoned cells.
func (hm *PropertyHashmap) UnusedCount() uint32 { return hm.unusedCount }

type hashmapDeleteStatus uint8

const (
	hashmapDeleteNoHashmap hashmapDeleteStatus = iota
	hashmapDeleteHasHashmap
	hashmapDeleteRecreate
)

// hashmapBucketCount picks the smallest power of two that keeps at least
// one third of the cells free for the given number of entries.
func hashmapBucketCount(entries uint32) uint32 {
	need := (entries*3 + 1) / 2
	count := uint32(8)
	for count < need {
		count <<= 1
	}
	return count
}

// hashmapCreate attaches a hashmap to the list. It is a no-op when the
// context's allocation switch is off, when the list is still small, or
// when the optional allocation fails; the list works without it.
func (ctx *Context) hashmapCreate(list *propertyList) {
	debugAssert(list.hashmapCP == jmem.Null, "hashmap already attached")

	if ctx.hashmapAllocState != HashmapAllocOn {
		return
	}
	if list.count < PropertyIndex(ctx.config.MinimumHashmapSize>>1) {
		return
	}

	liveCount := uint32(0)
	for i := PropertyIndex(1); i <= list.count; i++ {
		if list.at(i).Kind() != KindDeleted {
			liveCount++
		}
	}

	bucketCount := hashmapBucketCount(liveCount)
	hm := &PropertyHashmap{
		bucketCount: bucketCount,
		nullCount:   bucketCount,
		cells:       make([]PropertyIndex, bucketCount),
	}
	for i := range hm.cells {
		hm.cells[i] = hashmapCellClean
	}

	cp := ctx.heap.AllocNullOnError(hm)
	if cp == jmem.Null {
		return
	}

	mask := bucketCount - 1
	for i := PropertyIndex(1); i <= list.count; i++ {
		prop := list.at(i)
		if prop.Kind() == KindDeleted {
			continue
		}
		hash := ctx.propertyNameHash(prop)
		entry := hash & mask
		step := hashmapSteps[hash&uint32(len(hashmapSteps)-1)]
		for hm.cells[entry] < hashmapCellDirty {
			entry = (entry + step) & mask
		}
		hm.cells[entry] = i
		hm.nullCount--
		hm.propertyCount++
	}

	list.hashmapCP = cp
	ctx.hashmapCount++
}

// hashmapFree detaches and releases the list's hashmap.
func (ctx *Context) hashmapFree(list *propertyList) {
	debugAssert(list.hashmapCP != jmem.Null, "no hashmap attached")

	ctx.heap.Free(list.hashmapCP)
	list.hashmapCP = jmem.Null
	ctx.hashmapCount--
}

// hashmapInsert adds one slot index to the table, rebuilding first when
// too few clean cells remain to keep probes short.
func (ctx *Context) hashmapInsert(list *propertyList, name StringHandle, index PropertyIndex) {
	hm := jmem.Get[*PropertyHashmap](ctx.heap, list.hashmapCP)

	if hm.nullCount < hm.bucketCount>>3 {
		ctx.hashmapFree(list)
		ctx.hashmapCreate(list)
		return
	}

	hash := ctx.Hash(name)
	mask := hm.bucketCount - 1
	entry := hash & mask
	step := hashmapSteps[hash&uint32(len(hashmapSteps)-1)]
	for hm.cells[entry] < hashmapCellDirty {
		entry = (entry + step) & mask
	}
	if hm.cells[entry] == hashmapCellClean {
		hm.nullCount--
	} else {
		hm.unusedCount--
	}
	hm.cells[entry] = index
	hm.propertyCount++
}

// hashmapDelete tombstones the cell holding the slot index. The return
// status is always "has hashmap" except when the tombstone ratio asks the
// caller to rebuild; callers cannot distinguish "not present" from
// "removed" and must not rely on that distinction.
func (ctx *Context) hashmapDelete(list *propertyList, prop *Property, index PropertyIndex) hashmapDeleteStatus {
	hm := jmem.Get[*PropertyHashmap](ctx.heap, list.hashmapCP)

	hash := ctx.propertyNameHash(prop)
	mask := hm.bucketCount - 1
	entry := hash & mask
	step := hashmapSteps[hash&uint32(len(hashmapSteps)-1)]

	for n := uint32(0); n < hm.bucketCount; n++ {
		cell := hm.cells[entry]
		if cell == index {
			hm.cells[entry] = hashmapCellDirty
			hm.unusedCount++
			hm.propertyCount--
			if hm.unusedCount > (hm.bucketCount>>2)*3 {
				return hashmapDeleteRecreate
			}
			return hashmapDeleteHasHashmap
		}
		if cell == hashmapCellClean {
			return hashmapDeleteHasHashmap
		}
		entry = (entry + step) & mask
	}
	return hashmapDeleteHasHashmap
}

// hashmapFind probes for a name, stopping at the first clean cell. Hits
// are promoted into the lookup cache.
func (ctx *Context) hashmapFind(objCP jmem.Pointer, list *propertyList, name StringHandle) *Property {
	hm := jmem.Get[*PropertyHashmap](ctx.heap, list.hashmapCP)

	hash := ctx.Hash(name)
	mask := hm.bucketCount - 1
	entry := hash & mask
	step := hashmapSteps[hash&uint32(len(hashmapSteps)-1)]

	nameCP, nameType := propertyNameParts(name)
	direct := name.IsDirect()

	var found *Property
	var foundIdx PropertyIndex

	for n := uint32(0); n < hm.bucketCount; n++ {
		cell := hm.cells[entry]
		if cell == hashmapCellClean {
			break
		}
		if cell != hashmapCellDirty {
			prop := list.at(cell)
			if direct {
				if prop.nameCP == nameCP && prop.nameType == nameType {
					found, foundIdx = prop, cell
					break
				}
			} else if prop.nameType == NameTypePointer {
				if prop.nameCP == nameCP || ctx.EqualNonDirect(makePointerString(prop.nameCP), name) {
					found, foundIdx = prop, cell
					break
				}
			}
		}
		entry = (entry + step) & mask
	}

	if ctx.assertions {
		ctx.assertHashmapAgreement(list, name, found)
	}

	if found != nil && ctx.config.LookupCacheEnabled && !found.isLCached() {
		ctx.lcacheInsert(objCP, found, foundIdx)
	}
	return found
}

// assertHashmapAgreement is the debug sweep: a name resolves through the
// hashmap iff a linear walk of the list finds the same record.
func (ctx *Context) assertHashmapAgreement(list *propertyList, name StringHandle, found *Property) {
	nameCP, nameType := propertyNameParts(name)

	var linear *Property
	for i := PropertyIndex(1); i <= list.count; i++ {
		prop := list.at(i)
		if prop.Kind() == KindDeleted {
			continue
		}
		if name.IsDirect() {
			if prop.nameCP == nameCP && prop.nameType == nameType {
				linear = prop
				break
			}
		} else if prop.nameType == NameTypePointer {
			if prop.nameCP == nameCP || ctx.EqualNonDirect(makePointerString(prop.nameCP), name) {
				linear = prop
				break
			}
		}
	}
	ctx.debugAssert(linear == found, "hashmap and property list disagree")
}
