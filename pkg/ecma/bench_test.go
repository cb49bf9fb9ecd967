package ecma

import (
	"fmt"
	"testing"

	"github.com/rtakacs/jerryscript/pkg/jmem"
)

func benchObject(ctx *Context, props int) (jmem.Pointer, []StringHandle) {
	obj := ctx.CreateObject(jmem.Null, ObjectTypeGeneral)
	names := make([]StringHandle, props)
	for i := range names {
		names[i] = ctx.Intern(fmt.Sprintf("bench_prop_%03d", i))
		ctx.CreateNamedDataProperty(obj, names[i], AttributeMask)
	}
	return obj, names
}

func BenchmarkFindLinearScan(b *testing.B) {
	cfg := DefaultConfig()
	cfg.HashmapEnabled = false
	cfg.LookupCacheEnabled = false
	ctx := NewContext(cfg)
	defer ctx.Release()

	obj, names := benchObject(ctx, 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ctx.FindNamedProperty(obj, names[i&15]) == nil {
			b.Fatal("lookup failed")
		}
	}
}

func BenchmarkFindHashmap(b *testing.B) {
	cfg := DefaultConfig()
	cfg.LookupCacheEnabled = false
	ctx := NewContext(cfg)
	defer ctx.Release()

	obj, names := benchObject(ctx, 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ctx.FindNamedProperty(obj, names[i&63]) == nil {
			b.Fatal("lookup failed")
		}
	}
}

func BenchmarkFindLookupCacheHit(b *testing.B) {
	ctx := NewContext(DefaultConfig())
	defer ctx.Release()

	obj, names := benchObject(ctx, 64)
	name := names[17]
	ctx.FindNamedProperty(obj, name) // prime the cache
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ctx.FindNamedProperty(obj, name) == nil {
			b.Fatal("lookup failed")
		}
	}
}
