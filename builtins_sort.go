package cel

import "sort"

// registerSortFuncs wires `sort(list)` / `list.sort()`: a stable sort
// using Compare for ordered pairs, falling back to a type-name
// ordering for heterogeneous/unordered pairs so the sort always
// terminates instead of erroring (open question (b), resolved in
// DESIGN.md). NaN floats sort to the end, after every other value.
func registerSortFuncs(r *funcRegistry) {
	fn := func(_ CelValue, a []CelValue) CelValue { return sortList(a[0]) }
	r.register("sort", []ValueKind{KindList}, false, fn)
	r.registerMethod("sort", KindList, nil, func(recv CelValue, _ []CelValue) CelValue { return sortList(recv) })
}

func sortList(v CelValue) CelValue {
	src := v.AsList()
	out := make([]CelValue, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return lessForSort(out[i], out[j])
	})
	return ListValue(out)
}

func lessForSort(a, b CelValue) bool {
	aNaN, bNaN := isNaN(a), isNaN(b)
	if aNaN || bNaN {
		return !aNaN && bNaN
	}
	c, errv := Compare(a, b)
	if errv.IsErr() {
		return a.TypeName() < b.TypeName()
	}
	return c < 0
}
