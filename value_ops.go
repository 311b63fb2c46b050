package cel

import (
	"bytes"
	"encoding/gob"
	"math"
	"strings"
	"time"
)

// gobCelValue is CelValue's exported-field wire shape: CelValue itself
// keeps its payload fields unexported so constructors/accessors stay
// the only way to build or inspect one (spec §3), which means gob
// (exported-fields-only) needs this shadow struct to (de)serialize it
// (spec §6 "serialization is a pass-through", see DESIGN.md). Dyn
// values cannot serialize generically -- encoding one is an error.
type gobCelValue struct {
	Kind  ValueKind
	B     bool
	I     int64
	U     uint64
	F     float64
	S     string
	Bytes []byte
	List  []CelValue
	Map   map[string]CelValue
	Ts    time.Time
	Dur   time.Duration
	Err   *CelError
}

func init() {
	gob.Register(CelValue{})
}

// GobEncode implements gob.GobEncoder.
func (v CelValue) GobEncode() ([]byte, error) {
	if v.Kind == KindDyn {
		return nil, NewInternalError("cannot serialize a Dyn value")
	}
	return gobEncodeValue(gobCelValue{
		Kind: v.Kind, B: v.b, I: v.i, U: v.u, F: v.f, S: v.s,
		Bytes: v.bytes, List: v.list, Map: v.m, Ts: v.ts, Dur: v.dur, Err: v.err,
	})
}

// GobDecode implements gob.GobDecoder.
func (v *CelValue) GobDecode(data []byte) error {
	var g gobCelValue
	if err := gobDecodeValue(data, &g); err != nil {
		return err
	}
	*v = CelValue{
		Kind: g.Kind, b: g.B, i: g.I, u: g.U, f: g.F, s: g.S,
		bytes: g.Bytes, list: g.List, m: g.Map, ts: g.Ts, dur: g.Dur, err: g.Err,
	}
	return nil
}

func gobEncodeValue(g gobCelValue) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecodeValue(data []byte, g *gobCelValue) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(g)
}

// Add implements the `+` operator across numerics, strings, lists,
// bytes, and timestamp/duration combinations (spec §4.5, §9 uom note).
func Add(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	switch {
	case lhs.Kind == KindString && rhs.Kind == KindString:
		return StringValue(lhs.s + rhs.s)
	case lhs.Kind == KindBytes && rhs.Kind == KindBytes:
		buf := make([]byte, 0, len(lhs.bytes)+len(rhs.bytes))
		buf = append(buf, lhs.bytes...)
		buf = append(buf, rhs.bytes...)
		return BytesValue(buf)
	case lhs.Kind == KindList && rhs.Kind == KindList:
		out := make([]CelValue, 0, len(lhs.list)+len(rhs.list))
		out = append(out, lhs.list...)
		out = append(out, rhs.list...)
		return ListValue(out)
	case lhs.Kind == KindTimestamp && rhs.Kind == KindDuration:
		return TimestampValue(lhs.ts.Add(rhs.dur))
	case lhs.Kind == KindDuration && rhs.Kind == KindTimestamp:
		return TimestampValue(rhs.ts.Add(lhs.dur))
	case lhs.Kind == KindDuration && rhs.Kind == KindDuration:
		return DurationValue(lhs.dur + rhs.dur)
	}
	return numericOp(lhs, rhs, "+",
		func(a, b int64) (int64, bool) { return a + b, true },
		func(a, b uint64) (uint64, bool) { return a + b, true },
		func(a, b float64) float64 { return a + b },
	)
}

// Sub implements the `-` operator.
func Sub(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	switch {
	case lhs.Kind == KindTimestamp && rhs.Kind == KindTimestamp:
		return DurationValue(lhs.ts.Sub(rhs.ts))
	case lhs.Kind == KindTimestamp && rhs.Kind == KindDuration:
		return TimestampValue(lhs.ts.Add(-rhs.dur))
	case lhs.Kind == KindDuration && rhs.Kind == KindDuration:
		return DurationValue(lhs.dur - rhs.dur)
	}
	return numericOp(lhs, rhs, "-",
		func(a, b int64) (int64, bool) { return a - b, true },
		func(a, b uint64) (uint64, bool) { return a - b, true },
		func(a, b float64) float64 { return a - b },
	)
}

// Mul implements the `*` operator.
func Mul(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	return numericOp(lhs, rhs, "*",
		func(a, b int64) (int64, bool) { return a * b, true },
		func(a, b uint64) (uint64, bool) { return a * b, true },
		func(a, b float64) float64 { return a * b },
	)
}

// Div implements the `/` operator. Integer/uint division by zero is
// Err::DivideByZero; floating division by zero yields the IEEE-754
// result with no error (spec §4.5).
func Div(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	return numericOp(lhs, rhs, "/",
		func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		},
		func(a, b uint64) (uint64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		},
		func(a, b float64) float64 { return a / b },
	)
}

// Mod implements the `%` operator; only defined on Int/UInt per spec.
func Mod(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	if lhs.Kind == KindFloat || rhs.Kind == KindFloat {
		return ErrValue(NewInvalidOpError("'%%' not defined for float operands"))
	}
	return numericOp(lhs, rhs, "%",
		func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		},
		func(a, b uint64) (uint64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		},
		func(a, b float64) float64 { return math.Mod(a, b) },
	)
}

// Neg implements unary `-`.
func Neg(v CelValue) CelValue {
	if v.IsErr() {
		return v
	}
	switch v.Kind {
	case KindInt:
		return IntValue(-v.i)
	case KindFloat:
		return FloatValue(-v.f)
	case KindDuration:
		return DurationValue(-v.dur)
	default:
		return ErrValue(NewInvalidOpError("unary '-' not defined for %s", v.TypeName()))
	}
}

// Not implements unary `!`.
func Not(v CelValue) CelValue {
	if v.IsErr() {
		return v
	}
	if v.Kind != KindBool {
		return ErrValue(NewInvalidOpError("unary '!' not defined for %s", v.TypeName()))
	}
	return BoolValue(!v.b)
}

// numericOp implements the Int/UInt/Float numeric tower: same tag
// uses that tag; mixed integer/float widens to Float; Int+UInt mixing
// is allowed only when both values coincide in range, otherwise
// Err::InvalidOp (spec §4.5, open question (a) resolved: coerce only
// when lossless, else error -- see DESIGN.md).
func numericOp(
	lhs, rhs CelValue,
	sym string,
	onInt func(a, b int64) (int64, bool),
	onUInt func(a, b uint64) (uint64, bool),
	onFloat func(a, b float64) float64,
) CelValue {
	switch {
	case lhs.Kind == KindInt && rhs.Kind == KindInt:
		r, ok := onInt(lhs.i, rhs.i)
		if !ok {
			return ErrValue(NewDivideByZeroError())
		}
		return IntValue(r)

	case lhs.Kind == KindUInt && rhs.Kind == KindUInt:
		r, ok := onUInt(lhs.u, rhs.u)
		if !ok {
			return ErrValue(NewDivideByZeroError())
		}
		return UIntValue(r)

	case lhs.Kind == KindFloat || rhs.Kind == KindFloat:
		lf, lok := toFloat(lhs)
		rf, rok := toFloat(rhs)
		if !lok || !rok {
			return ErrValue(NewInvalidOpError("'%s' not defined between %s and %s", sym, lhs.TypeName(), rhs.TypeName()))
		}
		return FloatValue(onFloat(lf, rf))

	case lhs.Kind == KindInt && rhs.Kind == KindUInt:
		if lhs.i < 0 || rhs.u > math.MaxInt64 {
			return ErrValue(NewInvalidOpError("'%s' not defined between int and uint outside shared range", sym))
		}
		r, ok := onInt(lhs.i, int64(rhs.u))
		if !ok {
			return ErrValue(NewDivideByZeroError())
		}
		return IntValue(r)

	case lhs.Kind == KindUInt && rhs.Kind == KindInt:
		if rhs.i < 0 || lhs.u > math.MaxInt64 {
			return ErrValue(NewInvalidOpError("'%s' not defined between uint and int outside shared range", sym))
		}
		r, ok := onInt(int64(lhs.u), rhs.i)
		if !ok {
			return ErrValue(NewDivideByZeroError())
		}
		return IntValue(r)

	default:
		return ErrValue(NewInvalidOpError("'%s' not defined between %s and %s", sym, lhs.TypeName(), rhs.TypeName()))
	}
}

func toFloat(v CelValue) (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindUInt:
		return float64(v.u), true
	default:
		return 0, false
	}
}

// errOperand returns (operand, true) if either lhs or rhs is an Err,
// implementing error-wins-for-strict-operators (spec §4.5/§8 property
// 3): the left operand's error wins if present, else the right's.
func errOperand(lhs, rhs CelValue) (CelValue, bool) {
	if lhs.IsErr() {
		return lhs, true
	}
	if rhs.IsErr() {
		return rhs, true
	}
	return CelValue{}, false
}

// Eq implements `==`. Cross-tag equality (other than numeric widening)
// is always false, never an error, to preserve totality (spec §8
// property 1). NaN is never equal to anything, including itself.
func Eq(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	return BoolValue(valuesEqual(lhs, rhs))
}

// Ne implements `!=`.
func Ne(lhs, rhs CelValue) CelValue {
	eq := Eq(lhs, rhs)
	if eq.IsErr() {
		return eq
	}
	return BoolValue(!eq.b)
}

func valuesEqual(lhs, rhs CelValue) bool {
	if isNaN(lhs) || isNaN(rhs) {
		return false
	}
	if lf, lok := toFloat(lhs); lok {
		if rf, rok := toFloat(rhs); rok {
			return lf == rf
		}
	}
	if lhs.Kind != rhs.Kind {
		return false
	}
	switch lhs.Kind {
	case KindNull:
		return true
	case KindBool:
		return lhs.b == rhs.b
	case KindString:
		return lhs.s == rhs.s
	case KindBytes:
		return bytes.Equal(lhs.bytes, rhs.bytes)
	case KindTimestamp:
		return lhs.ts.Equal(rhs.ts)
	case KindDuration:
		return lhs.dur == rhs.dur
	case KindType:
		return lhs.s == rhs.s
	case KindList:
		if len(lhs.list) != len(rhs.list) {
			return false
		}
		for i := range lhs.list {
			if !valuesEqual(lhs.list[i], rhs.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(lhs.m) != len(rhs.m) {
			return false
		}
		for k, lv := range lhs.m {
			rv, ok := rhs.m[k]
			if !ok || !valuesEqual(lv, rv) {
				return false
			}
		}
		return true
	case KindDyn:
		return rhs.Kind == KindDyn && lhs.dyn.DynEq(rhs).IsTruthy()
	default:
		return false
	}
}

func isNaN(v CelValue) bool {
	return v.Kind == KindFloat && math.IsNaN(v.f)
}

// Compare implements `<`, `<=`, `>=`, `>`, returning -1/0/1, or an
// Err CelValue as the second result (the operand's own error, else
// Err::InvalidOp when the pair isn't ordered) (spec §4.5).
func Compare(lhs, rhs CelValue) (int, CelValue) {
	if e, ok := errOperand(lhs, rhs); ok {
		return 0, e
	}
	if isNaN(lhs) || isNaN(rhs) {
		return 0, ErrValue(NewInvalidOpError("NaN is unordered"))
	}
	if lf, lok := toFloat(lhs); lok {
		if rf, rok := toFloat(rhs); rok {
			switch {
			case lf < rf:
				return -1, CelValue{}
			case lf > rf:
				return 1, CelValue{}
			default:
				return 0, CelValue{}
			}
		}
	}
	if lhs.Kind != rhs.Kind {
		return 0, ErrValue(NewInvalidOpError("'<' not defined between %s and %s", lhs.TypeName(), rhs.TypeName()))
	}
	switch lhs.Kind {
	case KindString:
		return strings.Compare(lhs.s, rhs.s), CelValue{}
	case KindBytes:
		return bytes.Compare(lhs.bytes, rhs.bytes), CelValue{}
	case KindTimestamp:
		switch {
		case lhs.ts.Before(rhs.ts):
			return -1, CelValue{}
		case lhs.ts.After(rhs.ts):
			return 1, CelValue{}
		default:
			return 0, CelValue{}
		}
	case KindDuration:
		switch {
		case lhs.dur < rhs.dur:
			return -1, CelValue{}
		case lhs.dur > rhs.dur:
			return 1, CelValue{}
		default:
			return 0, CelValue{}
		}
	default:
		return 0, ErrValue(NewInvalidOpError("'<' not defined for %s", lhs.TypeName()))
	}
}

func Lt(lhs, rhs CelValue) CelValue { return cmpResult(lhs, rhs, func(c int) bool { return c < 0 }) }
func Le(lhs, rhs CelValue) CelValue { return cmpResult(lhs, rhs, func(c int) bool { return c <= 0 }) }
func Gt(lhs, rhs CelValue) CelValue { return cmpResult(lhs, rhs, func(c int) bool { return c > 0 }) }
func Ge(lhs, rhs CelValue) CelValue { return cmpResult(lhs, rhs, func(c int) bool { return c >= 0 }) }

func cmpResult(lhs, rhs CelValue, pred func(int) bool) CelValue {
	c, errv := Compare(lhs, rhs)
	if errv.IsErr() {
		return errv
	}
	return BoolValue(pred(c))
}

// And implements `&&`: commutative and error-absorbing. A false
// operand determines the result even when the other operand errors;
// otherwise the first error seen propagates (spec §4.4/§8).
func And(lhs, rhs CelValue) CelValue {
	if lhs.Kind == KindBool && !lhs.b {
		return BoolValue(false)
	}
	if rhs.Kind == KindBool && !rhs.b {
		return BoolValue(false)
	}
	if lhs.IsErr() {
		return lhs
	}
	if rhs.IsErr() {
		return rhs
	}
	if lhs.Kind != KindBool {
		return ErrValue(NewValueError("'&&' operand must be bool, got %s", lhs.TypeName()))
	}
	if rhs.Kind != KindBool {
		return ErrValue(NewValueError("'&&' operand must be bool, got %s", rhs.TypeName()))
	}
	return BoolValue(lhs.b && rhs.b)
}

// Or implements `||`: commutative and error-absorbing. A true operand
// determines the result even when the other operand errors.
func Or(lhs, rhs CelValue) CelValue {
	if lhs.Kind == KindBool && lhs.b {
		return BoolValue(true)
	}
	if rhs.Kind == KindBool && rhs.b {
		return BoolValue(true)
	}
	if lhs.IsErr() {
		return lhs
	}
	if rhs.IsErr() {
		return rhs
	}
	if lhs.Kind != KindBool {
		return ErrValue(NewValueError("'||' operand must be bool, got %s", lhs.TypeName()))
	}
	if rhs.Kind != KindBool {
		return ErrValue(NewValueError("'||' operand must be bool, got %s", rhs.TypeName()))
	}
	return BoolValue(lhs.b || rhs.b)
}

// In implements the `in` operator: element-in-list, key-in-map, and
// substring-in-string membership (spec §4.5).
func In(lhs, rhs CelValue) CelValue {
	if e, ok := errOperand(lhs, rhs); ok {
		return e
	}
	switch rhs.Kind {
	case KindList:
		for _, item := range rhs.list {
			if valuesEqual(lhs, item) {
				return BoolValue(true)
			}
		}
		return BoolValue(false)
	case KindMap:
		if lhs.Kind != KindString {
			return BoolValue(false)
		}
		_, ok := rhs.m[lhs.s]
		return BoolValue(ok)
	case KindString:
		if lhs.Kind != KindString {
			return ErrValue(NewInvalidOpError("'in' requires a string needle against a string haystack"))
		}
		return BoolValue(strings.Contains(rhs.s, lhs.s))
	default:
		return ErrValue(NewInvalidOpError("'in' not defined on %s", rhs.TypeName()))
	}
}
