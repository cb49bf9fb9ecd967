package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/width"

	"github.com/rtakacs/jerryscript/pkg/ecma"
	"github.com/rtakacs/jerryscript/pkg/jmem"
)

// jerry-propview populates a demo context and dumps the property storage
// internals: per-object property tables, hashmap occupancy, and lookup
// cache statistics. Useful for eyeballing accelerator behavior after a
// storage change.

var demoNames = []string{
	"value", "writable", "enumerable", "configurable", "get", "set",
	"toString", "valueOf", "hasOwnProperty", "isPrototypeOf",
	"propertyIsEnumerable", "toLocaleString", "name", "message", "stack",
	"global", "ignoreCase", "multiline", "source", "flags", "sticky",
	"unicode", "lastIndex", "input", "index", "groups", "raw", "size",
	"description", "byteLength", "byteOffset", "buffer", "done", "next",
	"return", "throw", "add", "has", "clear", "forEach",
	"データ", "長さ",
}

func main() {
	filter := flag.String("filter", "", "ECMAScript regular expression applied to property names")
	stats := flag.Bool("stats", false, "print lookup cache and heap statistics")
	flag.Parse()

	var re *regexp2.Regexp
	if *filter != "" {
		var err error
		re, err = regexp2.Compile(*filter, regexp2.ECMAScript)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -filter pattern: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := ecma.NewContext(ecma.DefaultConfig())
	defer ctx.Release()

	small := buildObject(ctx, demoNames[:6])
	large := buildObject(ctx, demoNames)

	// Touch every property twice so the lookup cache reaches steady state.
	for round := 0; round < 2; round++ {
		for _, name := range demoNames {
			h := ctx.Intern(name)
			ctx.FindNamedProperty(large, h)
			ctx.DerefString(h)
		}
	}

	dumpObject(ctx, "small", small, re)
	dumpObject(ctx, "large", large, re)

	if *stats {
		hits, misses := ctx.LookupCacheStats()
		fmt.Printf("lookup cache: %d entries, %d hits, %d misses\n",
			ctx.LookupCacheEntryCount(), hits, misses)
		totalAllocs, peakLive := ctx.Heap().Stats()
		fmt.Printf("heap: %d live blocks (peak %d, %d allocations), %d hashmaps\n",
			ctx.Heap().Live(), peakLive, totalAllocs, ctx.HashmapCount())
	}
}

func buildObject(ctx *ecma.Context, names []string) jmem.Pointer {
	obj := ctx.CreateObject(jmem.Null, ecma.ObjectTypeGeneral)
	for i, name := range names {
		h := ctx.Intern(name)
		prop := ctx.CreateNamedDataProperty(obj, h, ecma.AttributeMask)
		ctx.AssignNamedDataValue(obj, prop, ecma.MakeInteger(int32(i)))
		ctx.DerefString(h)
	}
	return obj
}

func dumpObject(ctx *ecma.Context, label string, objCP jmem.Pointer, re *regexp2.Regexp) {
	fmt.Printf("object %q: %d properties, hashmap=%v\n",
		label, ctx.PropertyCount(objCP), ctx.HasHashmap(objCP))

	nameCol := 0
	var rows []struct {
		name  string
		index ecma.PropertyIndex
		attrs string
	}
	ctx.ForEachProperty(objCP, func(index ecma.PropertyIndex, prop *ecma.Property) bool {
		name := ctx.StringOf(ctx.PropertyName(prop))
		if re != nil {
			if ok, _ := re.MatchString(name); !ok {
				return true
			}
		}
		rows = append(rows, struct {
			name  string
			index ecma.PropertyIndex
			attrs string
		}{name, index, attrString(prop)})
		if w := displayWidth(name); w > nameCol {
			nameCol = w
		}
		return true
	})

	for _, row := range rows {
		fmt.Printf("  %s%s  #%-4d %s\n",
			row.name, pad(nameCol-displayWidth(row.name)), row.index, row.attrs)
	}
	fmt.Println()
}

func attrString(prop *ecma.Property) string {
	attrs := []byte("---")
	if prop.Kind() == ecma.KindNamedData && prop.IsWritable() {
		attrs[0] = 'w'
	}
	if prop.IsEnumerable() {
		attrs[1] = 'e'
	}
	if prop.IsConfigurable() {
		attrs[2] = 'c'
	}
	return string(attrs)
}

// displayWidth measures a name in terminal cells; East Asian wide and
// fullwidth runes take two cells, so plain len() would skew the columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
