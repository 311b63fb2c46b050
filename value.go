package cel

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ValueKind tags the variant of a CelValue (spec §3).
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindUInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindTimestamp
	KindDuration
	KindType
	KindIdent
	KindDyn
	KindErr
)

func (k ValueKind) String() string {
	names := [...]string{
		"null", "bool", "int", "uint", "double", "string", "bytes",
		"list", "map", "timestamp", "duration", "type", "ident", "dyn", "error",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// mangle returns the one-letter signature tag of k (spec §4.5). The
// overload registry in builtins.go matches on ValueKind directly and
// does not call it.
func (k ValueKind) mangle() byte {
	switch k {
	case KindInt:
		return 'i'
	case KindUInt:
		return 'u'
	case KindFloat:
		return 'd'
	case KindBool:
		return 'b'
	case KindString:
		return 's'
	case KindList:
		return 'v'
	case KindMap:
		return 'm'
	case KindTimestamp:
		return 't'
	case KindDuration:
		return 'y'
	case KindBytes:
		return 'p'
	default:
		return '?'
	}
}

// DynValue is the capability surface a host object must implement to
// be wrapped in a Dyn CelValue (spec §4.5/§9): the single open-world
// extension point for caller-provided types.
type DynValue interface {
	DynType() string
	DynAccess(field string) CelValue
	DynEq(other CelValue) CelValue
	DynTruthy() bool
}

// CelValue is a tagged union over the CEL value universe. A single
// struct with a Kind discriminant (rather than one Go type per
// variant) keeps arithmetic/comparison dispatch a plain switch instead
// of a chain of type assertions -- see value_ops.go.
type CelValue struct {
	Kind ValueKind

	b     bool
	i     int64
	u     uint64
	f     float64
	s     string // String text, Type name, or Ident name
	bytes []byte
	list  []CelValue
	m     map[string]CelValue
	ts    time.Time
	dur   time.Duration
	dyn   DynValue
	err   *CelError
}

func NullValue() CelValue                 { return CelValue{Kind: KindNull} }
func BoolValue(b bool) CelValue           { return CelValue{Kind: KindBool, b: b} }
func IntValue(i int64) CelValue           { return CelValue{Kind: KindInt, i: i} }
func UIntValue(u uint64) CelValue         { return CelValue{Kind: KindUInt, u: u} }
func FloatValue(f float64) CelValue       { return CelValue{Kind: KindFloat, f: f} }
func StringValue(s string) CelValue       { return CelValue{Kind: KindString, s: s} }
func BytesValue(b []byte) CelValue        { return CelValue{Kind: KindBytes, bytes: b} }
func ListValue(items []CelValue) CelValue { return CelValue{Kind: KindList, list: items} }
func MapValue(m map[string]CelValue) CelValue {
	return CelValue{Kind: KindMap, m: m}
}
func TimestampValue(t time.Time) CelValue     { return CelValue{Kind: KindTimestamp, ts: t.UTC()} }
func DurationValue(d time.Duration) CelValue  { return CelValue{Kind: KindDuration, dur: d} }
func TypeValue(name string) CelValue          { return CelValue{Kind: KindType, s: name} }
func IdentValue(name string) CelValue         { return CelValue{Kind: KindIdent, s: name} }
func DynValueOf(d DynValue) CelValue          { return CelValue{Kind: KindDyn, dyn: d} }
func ErrValue(e *CelError) CelValue           { return CelValue{Kind: KindErr, err: e} }

func (v CelValue) IsErr() bool  { return v.Kind == KindErr }
func (v CelValue) IsNull() bool { return v.Kind == KindNull }
func (v CelValue) AsErr() *CelError {
	if v.Kind != KindErr {
		return nil
	}
	return v.err
}
func (v CelValue) AsBool() bool            { return v.b }
func (v CelValue) AsInt() int64            { return v.i }
func (v CelValue) AsUInt() uint64          { return v.u }
func (v CelValue) AsFloat() float64        { return v.f }
func (v CelValue) AsString() string        { return v.s }
func (v CelValue) AsBytes() []byte         { return v.bytes }
func (v CelValue) AsList() []CelValue      { return v.list }
func (v CelValue) AsMap() map[string]CelValue { return v.m }
func (v CelValue) AsTimestamp() time.Time  { return v.ts }
func (v CelValue) AsDuration() time.Duration { return v.dur }
func (v CelValue) AsDyn() DynValue         { return v.dyn }
func (v CelValue) AsTypeName() string      { return v.s }
func (v CelValue) AsIdentName() string     { return v.s }

// TypeName returns the CEL type name of v, used in error messages
// (e.g. Err::Attribute{parent: "map", ...}) and by the `type()` builtin.
func (v CelValue) TypeName() string {
	if v.Kind == KindDyn && v.dyn != nil {
		return v.dyn.DynType()
	}
	return v.Kind.String()
}

// IsTruthy reports the boolean-context truthiness of v: a Bool's own
// value, a Dyn's DynTruthy, false for everything else. TEST and JMPCOND
// do not call it (they read the Bool directly); equality of Dyn values
// uses it to read the result of DynEq.
func (v CelValue) IsTruthy() bool {
	switch v.Kind {
	case KindBool:
		return v.b
	case KindDyn:
		if v.dyn != nil {
			return v.dyn.DynTruthy()
		}
		return false
	default:
		return false
	}
}

func (v CelValue) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindUInt:
		return fmt.Sprintf("%du", v.u)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("b%q", v.bytes)
	case KindList:
		parts := make([]string, len(v.list))
		for i, it := range v.list {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, v.m[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindTimestamp:
		return v.ts.Format(time.RFC3339Nano)
	case KindDuration:
		return v.dur.String()
	case KindType:
		return "type(" + v.s + ")"
	case KindIdent:
		return "ident(" + v.s + ")"
	case KindDyn:
		return v.TypeName()
	case KindErr:
		if v.err != nil {
			return v.err.Error()
		}
		return "error"
	default:
		return "?"
	}
}
