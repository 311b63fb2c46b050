package cel

import "math"

// registerMathFuncs wires the numeric free functions: abs/ceil/floor/
// round/sqrt/pow/log/lg/min/max (spec §4.5, numeric tower).
func registerMathFuncs(r *funcRegistry) {
	r.register("abs", []ValueKind{KindInt}, false, func(_ CelValue, a []CelValue) CelValue {
		i := a[0].AsInt()
		if i == math.MinInt64 {
			return ErrValue(NewValueError("abs(%d) overflows int", i))
		}
		if i < 0 {
			return IntValue(-i)
		}
		return IntValue(i)
	})
	r.register("abs", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		return FloatValue(math.Abs(a[0].AsFloat()))
	})
	r.register("abs", []ValueKind{KindUInt}, false, func(_ CelValue, a []CelValue) CelValue {
		return a[0]
	})

	r.register("ceil", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		return FloatValue(math.Ceil(a[0].AsFloat()))
	})
	r.register("floor", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		return FloatValue(math.Floor(a[0].AsFloat()))
	})
	r.register("round", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		return FloatValue(math.Round(a[0].AsFloat()))
	})
	r.register("sqrt", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		v := a[0].AsFloat()
		if v < 0 {
			return ErrValue(NewValueError("sqrt of negative number %v", v))
		}
		return FloatValue(math.Sqrt(v))
	})
	r.register("pow", []ValueKind{KindFloat, KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		return FloatValue(math.Pow(a[0].AsFloat(), a[1].AsFloat()))
	})
	r.register("log", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		v := a[0].AsFloat()
		if v <= 0 {
			return ErrValue(NewValueError("log of non-positive number %v", v))
		}
		return FloatValue(math.Log(v))
	})
	r.register("lg", []ValueKind{KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
		v := a[0].AsFloat()
		if v <= 0 {
			return ErrValue(NewValueError("lg of non-positive number %v", v))
		}
		return FloatValue(math.Log2(v))
	})

	minmax := func(name string, pick func(c int) bool) {
		r.register(name, []ValueKind{KindInt, KindInt}, false, func(_ CelValue, a []CelValue) CelValue {
			c, errv := Compare(a[0], a[1])
			if errv.IsErr() {
				return errv
			}
			if pick(c) {
				return a[0]
			}
			return a[1]
		})
		r.register(name, []ValueKind{KindFloat, KindFloat}, false, func(_ CelValue, a []CelValue) CelValue {
			c, errv := Compare(a[0], a[1])
			if errv.IsErr() {
				return errv
			}
			if pick(c) {
				return a[0]
			}
			return a[1]
		})
		r.register(name, []ValueKind{KindUInt, KindUInt}, false, func(_ CelValue, a []CelValue) CelValue {
			c, errv := Compare(a[0], a[1])
			if errv.IsErr() {
				return errv
			}
			if pick(c) {
				return a[0]
			}
			return a[1]
		})
	}
	minmax("min", func(c int) bool { return c <= 0 })
	minmax("max", func(c int) bool { return c >= 0 })
}
