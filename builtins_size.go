package cel

import "unicode/utf8"

// registerSize wires `size(x)` both as a free function and as the
// `x.size()` method, over String/Bytes/List/Map. Strings are measured
// in Unicode codepoints, matching CEL's documented semantics (spec §9
// resolves the codepoints-vs-bytes-vs-UTF16 conflict flagged in the
// distilled spec -- see DESIGN.md).
func registerSize(r *funcRegistry) {
	fn := func(_ CelValue, a []CelValue) CelValue { return sizeOf(a[0]) }
	r.register("size", []ValueKind{KindString}, false, fn)
	r.register("size", []ValueKind{KindBytes}, false, fn)
	r.register("size", []ValueKind{KindList}, false, fn)
	r.register("size", []ValueKind{KindMap}, false, fn)

	method := func(recv CelValue, _ []CelValue) CelValue { return sizeOf(recv) }
	r.registerMethod("size", KindString, nil, method)
	r.registerMethod("size", KindBytes, nil, method)
	r.registerMethod("size", KindList, nil, method)
	r.registerMethod("size", KindMap, nil, method)
}

func sizeOf(v CelValue) CelValue {
	switch v.Kind {
	case KindString:
		return IntValue(int64(utf8.RuneCountInString(v.AsString())))
	case KindBytes:
		return IntValue(int64(len(v.AsBytes())))
	case KindList:
		return IntValue(int64(len(v.AsList())))
	case KindMap:
		return IntValue(int64(len(v.AsMap())))
	default:
		return ErrValue(NewArgumentError("size() not defined for %s", v.TypeName()))
	}
}
