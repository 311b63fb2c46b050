package cel

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"
)

// registerConversions wires the bool/int/uint/double/string/bytes/
// type/timestamp/duration/dyn conversion builtins (spec §4.5).
func registerConversions(r *funcRegistry) {
	r.register("bool", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return toBool(a[0])
	})
	r.register("int", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return toInt(a[0])
	})
	r.register("uint", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return toUInt(a[0])
	})
	r.register("double", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return toDouble(a[0])
	})
	r.register("string", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return toStringConv(a[0])
	})
	r.register("bytes", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return toBytes(a[0])
	})
	r.register("dyn", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return a[0]
	})
	r.register("type", []ValueKind{wildcard}, false, func(_ CelValue, a []CelValue) CelValue {
		return TypeValue(a[0].TypeName())
	})
	r.register("timestamp", []ValueKind{KindString}, false, func(_ CelValue, a []CelValue) CelValue {
		t, err := time.Parse(time.RFC3339Nano, a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid timestamp literal %q: %s", a[0].AsString(), err))
		}
		return TimestampValue(t)
	})
	r.register("duration", []ValueKind{KindString}, false, func(_ CelValue, a []CelValue) CelValue {
		d, err := time.ParseDuration(a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid duration literal %q: %s", a[0].AsString(), err))
		}
		return DurationValue(d)
	})

	// base64Encode/base64Decode round out the bytes<->string
	// conversions CEL leaves to libraries (spec §9 supplemented feature).
	r.register("base64Encode", []ValueKind{KindBytes}, false, func(_ CelValue, a []CelValue) CelValue {
		return StringValue(base64.StdEncoding.EncodeToString(a[0].AsBytes()))
	})
	r.register("base64Decode", []ValueKind{KindString}, false, func(_ CelValue, a []CelValue) CelValue {
		b, err := base64.StdEncoding.DecodeString(a[0].AsString())
		if err != nil {
			return ErrValue(NewValueError("invalid base64: %s", err))
		}
		return BytesValue(b)
	})
}

func toBool(v CelValue) CelValue {
	switch v.Kind {
	case KindBool:
		return v
	case KindString:
		switch v.AsString() {
		case "true":
			return BoolValue(true)
		case "false":
			return BoolValue(false)
		}
		return ErrValue(NewValueError("cannot convert %q to bool", v.AsString()))
	default:
		return ErrValue(NewValueError("cannot convert %s to bool", v.TypeName()))
	}
}

func toInt(v CelValue) CelValue {
	switch v.Kind {
	case KindInt:
		return v
	case KindUInt:
		if v.AsUInt() > math.MaxInt64 {
			return ErrValue(NewValueError("uint %d overflows int", v.AsUInt()))
		}
		return IntValue(int64(v.AsUInt()))
	case KindFloat:
		f := v.AsFloat()
		if math.IsNaN(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return ErrValue(NewValueError("double %v does not fit in int", f))
		}
		return IntValue(int64(f))
	case KindString:
		i, err := strconv.ParseInt(v.AsString(), 10, 64)
		if err != nil {
			return ErrValue(NewValueError("cannot convert %q to int", v.AsString()))
		}
		return IntValue(i)
	default:
		return ErrValue(NewValueError("cannot convert %s to int", v.TypeName()))
	}
}

func toUInt(v CelValue) CelValue {
	switch v.Kind {
	case KindUInt:
		return v
	case KindInt:
		if v.AsInt() < 0 {
			return ErrValue(NewValueError("int %d does not fit in uint", v.AsInt()))
		}
		return UIntValue(uint64(v.AsInt()))
	case KindFloat:
		f := v.AsFloat()
		if math.IsNaN(f) || f < 0 || f > math.MaxUint64 {
			return ErrValue(NewValueError("double %v does not fit in uint", f))
		}
		return UIntValue(uint64(f))
	case KindString:
		u, err := strconv.ParseUint(v.AsString(), 10, 64)
		if err != nil {
			return ErrValue(NewValueError("cannot convert %q to uint", v.AsString()))
		}
		return UIntValue(u)
	default:
		return ErrValue(NewValueError("cannot convert %s to uint", v.TypeName()))
	}
}

func toDouble(v CelValue) CelValue {
	switch v.Kind {
	case KindFloat:
		return v
	case KindInt:
		return FloatValue(float64(v.AsInt()))
	case KindUInt:
		return FloatValue(float64(v.AsUInt()))
	case KindString:
		f, err := strconv.ParseFloat(v.AsString(), 64)
		if err != nil {
			return ErrValue(NewValueError("cannot convert %q to double", v.AsString()))
		}
		return FloatValue(f)
	default:
		return ErrValue(NewValueError("cannot convert %s to double", v.TypeName()))
	}
}

func toStringConv(v CelValue) CelValue {
	switch v.Kind {
	case KindString:
		return v
	case KindBytes:
		return StringValue(string(v.AsBytes()))
	default:
		return StringValue(v.String())
	}
}

func toBytes(v CelValue) CelValue {
	switch v.Kind {
	case KindBytes:
		return v
	case KindString:
		return BytesValue([]byte(v.AsString()))
	default:
		return ErrValue(NewValueError("cannot convert %s to bytes", v.TypeName()))
	}
}
