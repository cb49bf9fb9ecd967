package ecma

import (
	"fmt"
	"testing"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

func addNamedData(ctx *Context, obj jmem.Pointer, name string, value int32) *Property {
	h := ctx.Intern(name)
	prop := ctx.CreateNamedDataProperty(obj, h, AttributeMask)
	ctx.AssignNamedDataValue(obj, prop, MakeInteger(value))
	ctx.DerefString(h)
	return prop
}

func TestHashmapCreatedOncePastThreshold(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	for i := 0; i < 40; i++ {
		addNamedData(ctx, obj, fmt.Sprintf("prop%02d", i), int32(i))

		wantHashmap := i+1 >= 32
		if got := ctx.HasHashmap(obj); got != wantHashmap {
			t.Fatalf("after %d insertions HasHashmap = %v, want %v", i+1, got, wantHashmap)
		}
	}
	if got := ctx.HashmapCount(); got != 1 {
		t.Errorf("HashmapCount = %d, want exactly one creation", got)
	}

	for i := 0; i < 40; i++ {
		name := mustIntern(ctx, fmt.Sprintf("prop%02d", i))
		prop := ctx.FindNamedProperty(obj, name)
		if prop == nil {
			t.Fatalf("prop%02d not found through the hashmap", i)
		}
		if got := prop.Value().AsInteger(); got != int32(i) {
			t.Errorf("prop%02d value = %d, want %d", i, got, i)
		}
		ctx.DerefString(name)
	}
}

func TestHashmapSurvivesMassDeletion(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	for i := 0; i < 40; i++ {
		addNamedData(ctx, obj, fmt.Sprintf("prop%02d", i), int32(i))
	}
	for i := 0; i < 31; i++ {
		name := mustIntern(ctx, fmt.Sprintf("prop%02d", i))
		prop := ctx.FindNamedProperty(obj, name)
		if prop == nil {
			t.Fatalf("prop%02d missing before delete", i)
		}
		ctx.DeleteProperty(obj, prop)
		ctx.DerefString(name)
	}

	if got := ctx.PropertyCount(obj); got != 9 {
		t.Fatalf("live property count = %d, want 9", got)
	}
	for i := 0; i < 40; i++ {
		name := mustIntern(ctx, fmt.Sprintf("prop%02d", i))
		prop := ctx.FindNamedProperty(obj, name)
		if i < 31 && prop != nil {
			t.Errorf("deleted prop%02d still resolves", i)
		}
		if i >= 31 && (prop == nil || prop.Value().AsInteger() != int32(i)) {
			t.Errorf("surviving prop%02d lost after deletions", i)
		}
		ctx.DerefString(name)
	}
}

func TestHashmapDeleteThresholdRecreates(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	// Fill until only a few clean cells remain in the 64-cell table, then
	// delete enough to push the tombstone ratio over three quarters.
	const total = 57
	for i := 0; i < total; i++ {
		addNamedData(ctx, obj, fmt.Sprintf("key%02d", i), int32(i))
	}
	list := ctx.propertyList(ctx.object(obj).propertyListCP)
	if list.hashmapCP == jmem.Null {
		t.Fatal("hashmap missing after fill")
	}
	if got := jmem.Get[*PropertyHashmap](ctx.heap, list.hashmapCP).BucketCount(); got != 64 {
		t.Fatalf("bucket count after fill = %d, want 64", got)
	}

	for i := 0; i < 49; i++ {
		name := mustIntern(ctx, fmt.Sprintf("key%02d", i))
		prop := ctx.FindNamedProperty(obj, name)
		ctx.DeleteProperty(obj, prop)
		ctx.DerefString(name)
	}

	if !ctx.HasHashmap(obj) {
		t.Fatal("hashmap gone after threshold recreation")
	}
	hm := jmem.Get[*PropertyHashmap](ctx.heap, list.hashmapCP)
	if hm.UnusedCount() != 0 {
		t.Errorf("recreated hashmap carries %d tombstones, want 0", hm.UnusedCount())
	}
	if hm.PropertyCount() != total-49 {
		t.Errorf("recreated hashmap holds %d entries, want %d", hm.PropertyCount(), total-49)
	}
	for i := 49; i < total; i++ {
		name := mustIntern(ctx, fmt.Sprintf("key%02d", i))
		if ctx.FindNamedProperty(obj, name) == nil {
			t.Errorf("key%02d lost across the rebuild", i)
		}
		ctx.DerefString(name)
	}
}

func TestHashmapAllocStateGatesCreation(t *testing.T) {
	ctx := newTestContext(t, nil)
	ctx.SetHashmapAllocState(HashmapAllocOff)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	for i := 0; i < 40; i++ {
		addNamedData(ctx, obj, fmt.Sprintf("prop%02d", i), int32(i))
	}
	if ctx.HasHashmap(obj) {
		t.Fatal("hashmap created while allocation state is OFF")
	}

	// Lookups still work through the slow path.
	name := mustIntern(ctx, "prop17")
	if prop := ctx.FindNamedProperty(obj, name); prop == nil || prop.Value().AsInteger() != 17 {
		t.Errorf("slow-path lookup failed with hashmap allocation off")
	}
	ctx.DerefString(name)

	// Creation is re-attempted on the next insertion once the switch is
	// back on.
	ctx.SetHashmapAllocState(HashmapAllocOn)
	addNamedData(ctx, obj, "prop40", 40)
	if !ctx.HasHashmap(obj) {
		t.Errorf("hashmap not created after re-enabling allocation")
	}
}

func TestHashmapCreationToleratesAllocationFailure(t *testing.T) {
	// A heap budget that runs out exactly when the optional hashmap
	// allocation happens: 1 object + 1 list + 32 string records.
	ctx := newTestContext(t, func(cfg *Config) { cfg.HeapLimit = 34 })
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	for i := 0; i < 32; i++ {
		addNamedData(ctx, obj, fmt.Sprintf("prop%02d", i), int32(i))
	}
	if ctx.HasHashmap(obj) {
		t.Fatal("hashmap allocation unexpectedly succeeded under the block budget")
	}
	name := mustIntern(ctx, "prop31")
	if prop := ctx.FindNamedProperty(obj, name); prop == nil || prop.Value().AsInteger() != 31 {
		t.Errorf("lookup failed after a skipped hashmap installation")
	}
	ctx.DerefString(name)
}

func TestProbeSequenceVisitsEveryCellOnce(t *testing.T) {
	const bucketCount = 64
	mask := uint32(bucketCount - 1)

	for _, step := range hashmapSteps {
		for start := uint32(0); start < bucketCount; start++ {
			visited := make(map[uint32]bool, bucketCount)
			entry := start
			for i := 0; i < bucketCount; i++ {
				if visited[entry] {
					t.Fatalf("step %d from %d revisited cell %d after %d probes", step, start, entry, i)
				}
				visited[entry] = true
				entry = (entry + step) & mask
			}
			if len(visited) != bucketCount {
				t.Fatalf("step %d from %d covered %d cells, want %d", step, start, len(visited), bucketCount)
			}
		}
	}
}

func TestDirectAndIndirectNamesResolveSameRecord(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	// Push the object over the hashmap threshold so both paths go through
	// the accelerator.
	for i := 0; i < 33; i++ {
		addNamedData(ctx, obj, fmt.Sprintf("filler%02d", i), 0)
	}
	direct := MakeUIntString(1234)
	prop := ctx.CreateNamedDataProperty(obj, direct, AttributeMask)

	interned := ctx.Intern("1234")
	if interned != direct {
		t.Fatalf("\"1234\" interned to %#x, want the direct handle %#x", interned, direct)
	}
	if got := ctx.FindNamedProperty(obj, interned); got != prop {
		t.Errorf("indirect-spelled name resolved to a different record")
	}
	if got := ctx.FindNamedProperty(obj, direct); got != prop {
		t.Errorf("direct name resolved to a different record")
	}
}
