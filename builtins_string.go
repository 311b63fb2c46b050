package cel

import (
	"regexp"
	"strings"
)

// registerStringFuncs wires the string built-in method family: the
// contains/startsWith/endsWith trio (plus `_i` case-insensitive
// variants, a supplemented feature per spec §9), regexp matching,
// splitting, trimming, and case conversion.
func registerStringFuncs(r *funcRegistry) {
	s := KindString

	method1str := func(name string, fn func(recv, arg string) CelValue) {
		r.registerMethod(name, s, []ValueKind{s}, func(recv CelValue, a []CelValue) CelValue {
			return fn(recv.AsString(), a[0].AsString())
		})
	}

	method1str("contains", func(recv, arg string) CelValue { return BoolValue(strings.Contains(recv, arg)) })
	method1str("startsWith", func(recv, arg string) CelValue { return BoolValue(strings.HasPrefix(recv, arg)) })
	method1str("endsWith", func(recv, arg string) CelValue { return BoolValue(strings.HasSuffix(recv, arg)) })
	method1str("contains_i", func(recv, arg string) CelValue {
		return BoolValue(strings.Contains(strings.ToLower(recv), strings.ToLower(arg)))
	})
	method1str("startsWith_i", func(recv, arg string) CelValue {
		return BoolValue(strings.HasPrefix(strings.ToLower(recv), strings.ToLower(arg)))
	})
	method1str("endsWith_i", func(recv, arg string) CelValue {
		return BoolValue(strings.HasSuffix(strings.ToLower(recv), strings.ToLower(arg)))
	})

	r.registerMethod("matches", s, []ValueKind{s}, func(recv CelValue, a []CelValue) CelValue {
		re, err := regexp.Compile(a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid regex %q: %s", a[0].AsString(), err))
		}
		return BoolValue(re.MatchString(recv.AsString()))
	})

	r.registerMethod("matchCaptures", s, []ValueKind{s}, func(recv CelValue, a []CelValue) CelValue {
		re, err := regexp.Compile(a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid regex %q: %s", a[0].AsString(), err))
		}
		m := re.FindStringSubmatch(recv.AsString())
		if m == nil {
			return ListValue(nil)
		}
		out := make([]CelValue, len(m))
		for i, g := range m {
			out[i] = StringValue(g)
		}
		return ListValue(out)
	})

	r.registerMethod("matchReplace", s, []ValueKind{s, s}, func(recv CelValue, a []CelValue) CelValue {
		re, err := regexp.Compile(a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid regex %q: %s", a[0].AsString(), err))
		}
		return StringValue(re.ReplaceAllString(recv.AsString(), a[1].AsString()))
	})

	r.registerMethod("matchReplaceOnce", s, []ValueKind{s, s}, func(recv CelValue, a []CelValue) CelValue {
		re, err := regexp.Compile(a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid regex %q: %s", a[0].AsString(), err))
		}
		done := false
		return StringValue(re.ReplaceAllStringFunc(recv.AsString(), func(m string) string {
			if done {
				return m
			}
			done = true
			return a[1].AsString()
		}))
	})

	r.registerMethod("split", s, []ValueKind{s}, func(recv CelValue, a []CelValue) CelValue {
		return stringsToList(strings.Split(recv.AsString(), a[0].AsString()))
	})
	r.registerMethod("rsplit", s, []ValueKind{s, KindInt}, func(recv CelValue, a []CelValue) CelValue {
		n := int(a[1].AsInt())
		parts := strings.Split(recv.AsString(), a[0].AsString())
		if n <= 0 || n >= len(parts) {
			return stringsToList(parts)
		}
		head := strings.Join(parts[:len(parts)-n+1], a[0].AsString())
		out := append([]string{head}, parts[len(parts)-n+1:]...)
		return stringsToList(out)
	})
	r.registerMethod("splitAt", s, []ValueKind{s, KindInt}, func(recv CelValue, a []CelValue) CelValue {
		n := int(a[1].AsInt())
		parts := strings.SplitN(recv.AsString(), a[0].AsString(), n)
		return stringsToList(parts)
	})
	r.registerMethod("splitWhitespace", s, nil, func(recv CelValue, _ []CelValue) CelValue {
		return stringsToList(strings.Fields(recv.AsString()))
	})

	r.registerMethod("trim", s, nil, func(recv CelValue, _ []CelValue) CelValue {
		return StringValue(strings.TrimSpace(recv.AsString()))
	})
	r.registerMethod("trimStart", s, nil, func(recv CelValue, _ []CelValue) CelValue {
		return StringValue(strings.TrimLeft(recv.AsString(), " \t\r\n"))
	})
	r.registerMethod("trimEnd", s, nil, func(recv CelValue, _ []CelValue) CelValue {
		return StringValue(strings.TrimRight(recv.AsString(), " \t\r\n"))
	})

	r.registerMethod("remove", s, []ValueKind{s}, func(recv CelValue, a []CelValue) CelValue {
		return StringValue(strings.ReplaceAll(recv.AsString(), a[0].AsString(), ""))
	})
	r.registerMethod("replace", s, []ValueKind{s, s}, func(recv CelValue, a []CelValue) CelValue {
		return StringValue(strings.ReplaceAll(recv.AsString(), a[0].AsString(), a[1].AsString()))
	})

	r.registerMethod("toLower", s, nil, func(recv CelValue, _ []CelValue) CelValue {
		return StringValue(strings.ToLower(recv.AsString()))
	})
	r.registerMethod("toUpper", s, nil, func(recv CelValue, _ []CelValue) CelValue {
		return StringValue(strings.ToUpper(recv.AsString()))
	})
}

func stringsToList(parts []string) CelValue {
	out := make([]CelValue, len(parts))
	for i, p := range parts {
		out[i] = StringValue(p)
	}
	return ListValue(out)
}
