package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEndToEndScenarios runs the ten canonical source/bindings/result
// triples end to end through lex -> parse -> compile -> interpret.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		bindings Bindings
		check    func(t *testing.T, v CelValue)
	}{
		{"arith-no-bindings", "((4 * 3) - 4) + 3", nil, func(t *testing.T, v CelValue) {
			assert.Equal(t, int64(11), v.AsInt())
		}},
		{"arith-with-binding", "((4 * 3) - foo) + 3", Bindings{"foo": IntValue(6)}, func(t *testing.T, v CelValue) {
			assert.Equal(t, int64(9), v.AsInt())
		}},
		{"has-false-on-empty-map", "has(a.b)", Bindings{"a": MapValue(map[string]CelValue{})}, func(t *testing.T, v CelValue) {
			assert.False(t, v.AsBool())
		}},
		{"has-true-when-present", "has(a.b)", Bindings{"a": MapValue(map[string]CelValue{"b": IntValue(1)})}, func(t *testing.T, v CelValue) {
			assert.True(t, v.AsBool())
		}},
		{"filter-list", "[1, 2, 3].filter(x, x >= 2)", nil, func(t *testing.T, v CelValue) {
			got := v.AsList()
			require.Len(t, got, 2)
			assert.Equal(t, int64(2), got[0].AsInt())
			assert.Equal(t, int64(3), got[1].AsInt())
		}},
		{"reduce-sum", "[1, 2, 3].reduce(a, x, a + x, 0)", nil, func(t *testing.T, v CelValue) {
			assert.Equal(t, int64(6), v.AsInt())
		}},
		{"string-concat-eq", `"foo" + "bar" == "foobar"`, nil, func(t *testing.T, v CelValue) {
			assert.True(t, v.AsBool())
		}},
		{"ternary-else-not-evaluated", "true ? 1 : (1 / 0)", nil, func(t *testing.T, v CelValue) {
			require.False(t, v.IsErr())
			assert.Equal(t, int64(1), v.AsInt())
		}},
		{"timestamp-year", `timestamp("2020-01-02T00:00:00Z").getFullYear()`, nil, func(t *testing.T, v CelValue) {
			require.False(t, v.IsErr())
			assert.Equal(t, int64(2020), v.AsInt())
		}},
		{"map-index-missing-key", `{"a": 1, "b": 2}["c"]`, nil, func(t *testing.T, v CelValue) {
			require.True(t, v.IsErr())
			assert.Equal(t, ErrAttribute, v.AsErr().Kind)
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.check(t, evalExpr(t, c.src, c.bindings))
		})
	}
}

// TestInvariantTotalityOfEquality: a == b is always Bool or Err::InvalidOp,
// never a crash, across every kind pairing CelValue supports.
func TestInvariantTotalityOfEquality(t *testing.T) {
	values := []CelValue{
		NullValue(), BoolValue(true), IntValue(1), UIntValue(1), FloatValue(1.0),
		StringValue("x"), BytesValue([]byte("x")),
		ListValue([]CelValue{IntValue(1)}), MapValue(map[string]CelValue{"a": IntValue(1)}),
	}
	for _, a := range values {
		for _, b := range values {
			r := Eq(a, b)
			if r.IsErr() {
				assert.Equal(t, ErrInvalidOp, r.AsErr().Kind)
			} else {
				assert.Equal(t, KindBool, r.Kind)
			}
		}
	}
}

func TestInvariantShortCircuitPrecedence(t *testing.T) {
	assert.False(t, evalExpr(t, "false && (1 / 0 > 0)", nil).AsBool())
	assert.True(t, evalExpr(t, "true || (1 / 0 > 0)", nil).AsBool())
}

func TestInvariantErrorWinsForStrictOperators(t *testing.T) {
	exprs := []string{
		"(1 / 0) + 1", "1 + (1 / 0)",
		"(1 / 0) - 1", "1 - (1 / 0)",
		"(1 / 0) * 1", "1 * (1 / 0)",
		"(1 / 0) < 1", "1 < (1 / 0)",
		"(1 / 0) >= 1", "1 >= (1 / 0)",
	}
	for _, e := range exprs {
		v := evalExpr(t, e, nil)
		assert.True(t, v.IsErr(), "expected error for %q", e)
	}
}

func TestInvariantHasRecoversOnlyBindingAttribute(t *testing.T) {
	v := evalExpr(t, `has({"a": 1}.b)`, nil)
	require.False(t, v.IsErr())
	assert.False(t, v.AsBool())

	v2 := evalExpr(t, `has(1 / 0)`, nil)
	require.True(t, v2.IsErr())
	assert.Equal(t, ErrDivideByZero, v2.AsErr().Kind)
}

func TestInvariantSerializeRoundTripPreservesExec(t *testing.T) {
	src := `[1, 2, 3].reduce(a, x, a + x, 0) + foo`
	bindings := Bindings{"foo": IntValue(10)}

	prog, err := ParseProgram(src)
	require.NoError(t, err)
	data, err := prog.Serialize()
	require.NoError(t, err)
	restored, err := Deserialize(data)
	require.NoError(t, err)

	bc1 := NewBindContext()
	bc1.AddProgram("p", prog)
	v1, err := bc1.Exec(context.Background(), "p", bindings)
	require.NoError(t, err)

	bc2 := NewBindContext()
	bc2.AddProgram("p", restored)
	v2, err := bc2.Exec(context.Background(), "p", bindings)
	require.NoError(t, err)

	assert.Equal(t, v1.AsInt(), v2.AsInt())
}

func TestInvariantConcatenationAssociativity(t *testing.T) {
	v1 := evalExpr(t, `("a" + "b") + "c"`, nil)
	v2 := evalExpr(t, `"a" + ("b" + "c")`, nil)
	assert.Equal(t, v1.AsString(), v2.AsString())

	l1 := evalExpr(t, `([1, 2] + [3]) + [4]`, nil)
	l2 := evalExpr(t, `[1, 2] + ([3] + [4])`, nil)
	assert.Equal(t, l1.String(), l2.String())
}

func TestInvariantNumericIdentity(t *testing.T) {
	assert.Equal(t, int64(7), evalExpr(t, "7 + 0", nil).AsInt())
	assert.Equal(t, uint64(7), evalExpr(t, "7u + 0u", nil).AsUInt())
	assert.Equal(t, 7.5, evalExpr(t, "7.5 + 0.0", nil).AsFloat())
}

// TestInvariantMacroArgumentLaziness proves filter's predicate bytecode
// runs zero times against an empty receiver by using a predicate that
// divides by zero, which would turn the result into an error if it
// were ever evaluated.
func TestInvariantMacroArgumentLaziness(t *testing.T) {
	v := evalExpr(t, `[].filter(x, 1 / 0 > 0)`, nil)
	require.False(t, v.IsErr(), "predicate on an empty receiver must never run")
	assert.Empty(t, v.AsList())
}
