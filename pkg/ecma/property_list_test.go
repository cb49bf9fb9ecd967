package ecma

import (
	"fmt"
	"testing"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

func TestFindCreateDeleteRoundTrip(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)
	name := mustIntern(ctx, "answer")

	if got := ctx.FindNamedProperty(obj, name); got != nil {
		t.Fatalf("find on empty object returned %v, want nil", got)
	}

	prop := ctx.CreateNamedDataProperty(obj, name, AttributeMask)
	ctx.AssignNamedDataValue(obj, prop, MakeInteger(42))

	for i := 0; i < 3; i++ {
		if got := ctx.FindNamedProperty(obj, name); got != prop {
			t.Fatalf("find #%d returned a different record", i)
		}
	}
	if got := prop.Value().AsInteger(); got != 42 {
		t.Errorf("stored value = %d, want 42", got)
	}

	ctx.DeleteProperty(obj, prop)
	if got := ctx.FindNamedProperty(obj, name); got != nil {
		t.Errorf("find after delete returned a record, want nil")
	}
}

func TestLiveNamesAreUnique(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	for i := 0; i < 12; i++ {
		name := mustIntern(ctx, fmt.Sprintf("p%d", i))
		ctx.CreateNamedDataProperty(obj, name, AttributeMask)
	}
	name := mustIntern(ctx, "p7")
	prop := ctx.FindNamedProperty(obj, name)
	ctx.DeleteProperty(obj, prop)
	ctx.CreateNamedDataProperty(obj, name, AttributeMask)

	seen := make(map[[2]uint32]bool)
	ctx.ForEachProperty(obj, func(_ PropertyIndex, p *Property) bool {
		key := [2]uint32{uint32(p.nameCP), uint32(p.nameType)}
		if seen[key] {
			t.Errorf("duplicate live (name, type) pair for %q", ctx.StringOf(ctx.PropertyName(p)))
		}
		seen[key] = true
		return true
	})
}

func TestEnumerableKeysInInsertionOrder(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	a := ctx.CreateNamedDataProperty(obj, mustIntern(ctx, "a"), AttributeMask)
	ctx.AssignNamedDataValue(obj, a, MakeInteger(111))
	b := ctx.CreateNamedDataProperty(obj, mustIntern(ctx, "b"), AttributeMask)
	ctx.AssignNamedDataValue(obj, b, MakeInteger(4))
	foo := ctx.CreateNamedDataProperty(obj, mustIntern(ctx, "foo"), FlagWritable)
	ctx.AssignNamedDataValue(obj, foo, MakeInteger(3))

	keys := ctx.OwnEnumerableKeys(obj)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("enumerable keys = %v, want [a b]", keys)
	}
	names := ctx.OwnPropertyNames(obj)
	if len(names) != 3 || names[2] != "foo" {
		t.Errorf("all names = %v, want [a b foo]", names)
	}
}

func TestDescriptorReadBack(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	p1 := ctx.CreateNamedDataProperty(obj, mustIntern(ctx, "property1"), AttributeMask)
	ctx.AssignNamedDataValue(obj, p1, MakeInteger(42))
	p2 := ctx.CreateNamedDataProperty(obj, mustIntern(ctx, "property2"), FlagWritable|FlagConfigurable)
	str := mustIntern(ctx, "foo")
	ctx.AssignNamedDataValue(obj, p2, MakeStringValue(str))
	ctx.DerefString(str)
	p3 := ctx.CreateNamedDataProperty(obj, mustIntern(ctx, "property3"), FlagEnumerable)

	type desc struct {
		name    string
		w, e, c bool
	}
	want := []desc{
		{"property1", true, true, true},
		{"property2", true, false, true},
		{"property3", false, true, false},
	}
	var got []desc
	ctx.ForEachProperty(obj, func(_ PropertyIndex, p *Property) bool {
		got = append(got, desc{
			name: ctx.StringOf(ctx.PropertyName(p)),
			w:    p.IsWritable(),
			e:    p.IsEnumerable(),
			c:    p.IsConfigurable(),
		})
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("descriptor count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("descriptor %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if !p3.Value().IsUndefined() {
		t.Errorf("property3 value = %v, want undefined", p3.Value())
	}
}

func TestMRUHintsRotateOnLookup(t *testing.T) {
	// Disable both accelerators so resolution exercises the hints and the
	// linear scan only.
	ctx := newTestContext(t, func(cfg *Config) {
		cfg.HashmapEnabled = false
		cfg.LookupCacheEnabled = false
	})
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	var names []StringHandle
	for i := 0; i < 8; i++ {
		h := mustIntern(ctx, fmt.Sprintf("slot%d", i))
		names = append(names, h)
		ctx.CreateNamedDataProperty(obj, h, AttributeMask)
	}

	list := ctx.propertyList(ctx.object(obj).propertyListCP)
	if ctx.FindNamedProperty(obj, names[5]) == nil {
		t.Fatal("lookup failed")
	}
	if list.cache[0] != 6 {
		t.Errorf("cache[0] = %d after lookup of slot index 6, want 6", list.cache[0])
	}
	if ctx.FindNamedProperty(obj, names[2]) == nil {
		t.Fatal("lookup failed")
	}
	if list.cache[0] != 3 || list.cache[1] != 6 {
		t.Errorf("MRU rotation = %v, want [3 6 ...]", list.cache)
	}
}

func TestDeleteCheckedRefusesNonConfigurable(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	name := mustIntern(ctx, "foo")
	prop := ctx.CreateNamedDataProperty(obj, name, FlagWritable)
	ctx.AssignNamedDataValue(obj, prop, MakeInteger(3))

	if ctx.DeletePropertyChecked(obj, name) {
		t.Errorf("delete of a non-configurable property succeeded")
	}
	if got := ctx.FindNamedProperty(obj, name); got != prop {
		t.Errorf("property vanished after a refused delete")
	}

	if !ctx.DeletePropertyChecked(obj, mustIntern(ctx, "missing")) {
		t.Errorf("delete of an absent property failed")
	}
}

func TestCloneDeclarativeEnvironment(t *testing.T) {
	ctx := newTestContext(t, nil)

	outer := ctx.CreateDeclEnv(jmem.Null)
	env := ctx.CreateDeclEnv(outer)
	x := ctx.CreateNamedDataProperty(env, mustIntern(ctx, "x"), FlagWritable)
	ctx.AssignNamedDataValue(env, x, MakeInteger(10))
	ctx.CreateNamedDataProperty(env, mustIntern(ctx, "y"), FlagWritable|FlagEnumerable)

	cloneCP := ctx.CloneDeclarativeEnvironment(env, true)
	clone := ctx.object(cloneCP)
	if clone.OuterReference() != outer {
		t.Errorf("clone outer reference = %d, want %d", clone.OuterReference(), outer)
	}

	cx := ctx.FindNamedProperty(cloneCP, mustIntern(ctx, "x"))
	if cx == nil || cx.Value().AsInteger() != 10 {
		t.Errorf("cloned binding x lost its value")
	}
	if cx.typeFlags&AttributeMask != FlagWritable {
		t.Errorf("cloned binding x attributes = %#x, want writable only", cx.typeFlags&AttributeMask)
	}

	// Cloning without values leaves the bindings uninitialized.
	second := ctx.CloneDeclarativeEnvironment(cloneCP, false)
	sx := ctx.FindNamedProperty(second, mustIntern(ctx, "x"))
	if sx == nil || !sx.Value().IsUninitialized() {
		t.Errorf("value-less clone did not leave bindings uninitialized")
	}
}

func TestObjectTeardownReleasesProperties(t *testing.T) {
	ctx := newTestContext(t, nil)
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)

	name := mustIntern(ctx, "held")
	prop := ctx.CreateNamedDataProperty(obj, name, AttributeMask)
	str := mustIntern(ctx, "payload string")
	ctx.AssignNamedDataValue(obj, prop, MakeStringValue(str))
	ctx.DerefString(str)
	ctx.DerefString(name)

	ctx.DerefObject(obj)

	// Teardown dropped the name and the value; re-interning both must
	// build fresh records rather than resolve stale ones.
	h := ctx.Intern("payload string")
	if got := ctx.StringOf(h); got != "payload string" {
		t.Errorf("string table corrupted after teardown: %q", got)
	}
	ctx.DerefString(h)
}
