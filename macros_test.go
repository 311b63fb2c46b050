package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasAbsorbsMissingFieldIntoFalse(t *testing.T) {
	v := evalExpr(t, `has({"a": 1}.b)`, nil)
	require.False(t, v.IsErr())
	assert.False(t, v.AsBool())
}

func TestHasTrueForPresentField(t *testing.T) {
	v := evalExpr(t, `has({"a": 1}.a)`, nil)
	require.False(t, v.IsErr())
	assert.True(t, v.AsBool())
}

func TestCoalesceSkipsRecoverableErrors(t *testing.T) {
	v := evalExpr(t, `coalesce({"a": 1}.missing, {"a": 1}.a)`, nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(1), v.AsInt())
}

func TestCoalesceShortCircuitsOnNonRecoverableError(t *testing.T) {
	v := evalExpr(t, `coalesce(1 / 0, 42)`, nil)
	assert.True(t, v.IsErr(), "DivideByZero is not recoverable, must not fall through")
}

func TestExistsFindsMatchingElement(t *testing.T) {
	v := evalExpr(t, `[1, 2, 3].exists(x, x == 2)`, nil)
	require.False(t, v.IsErr())
	assert.True(t, v.AsBool())
}

func TestExistsOneRequiresExactlyOneMatch(t *testing.T) {
	v := evalExpr(t, `[1, 2, 2, 3].exists_one(x, x == 2)`, nil)
	require.False(t, v.IsErr())
	assert.False(t, v.AsBool(), "two elements match 2, exists_one must be false")
}

func TestFilterKeepsMatchingElements(t *testing.T) {
	v := evalExpr(t, `[1, 2, 3, 4].filter(x, x % 2 == 0)`, nil)
	require.False(t, v.IsErr())
	got := v.AsList()
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].AsInt())
	assert.Equal(t, int64(4), got[1].AsInt())
}

func TestMapTransformsElements(t *testing.T) {
	v := evalExpr(t, `[1, 2, 3].map(x, x * 2)`, nil)
	require.False(t, v.IsErr())
	got := v.AsList()
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].AsInt())
	assert.Equal(t, int64(6), got[2].AsInt())
}

func TestMapWithGuardSkipsFilteredElements(t *testing.T) {
	v := evalExpr(t, `[1, 2, 3, 4].map(x, x % 2 == 0, x * 10)`, nil)
	require.False(t, v.IsErr())
	got := v.AsList()
	require.Len(t, got, 2)
	assert.Equal(t, int64(20), got[0].AsInt())
	assert.Equal(t, int64(40), got[1].AsInt())
}

func TestReduceAccumulates(t *testing.T) {
	v := evalExpr(t, `[1, 2, 3, 4].reduce(acc, x, acc + x, 0)`, nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(10), v.AsInt())
}

// TestMacroArgumentsAreLazy runs exists over a list whose first element
// already satisfies the predicate and checks the result is true; it
// does not count how many elements the predicate visits.
func TestMacroArgumentsAreLazy(t *testing.T) {
	bc := NewBindContext()
	require.NoError(t, bc.FromSource("t", `[1, 2, 3].exists(x, x == 1)`))
	v, err := bc.Exec(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestCoalesceAllRecoverableReturnsNull(t *testing.T) {
	v := evalExpr(t, `coalesce({"a": 1}.x, {"a": 1}.y)`, nil)
	require.False(t, v.IsErr())
	assert.True(t, v.IsNull())
}

func TestCoalesceSkipsNull(t *testing.T) {
	v := evalExpr(t, `coalesce(null, 5)`, nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(5), v.AsInt())
}

// TestBindMacroNewNameReceivesUnevaluatedArgs proves a macro registered
// under a name with no built-in counterpart is still compiled as a
// lazy call: CALL resolves macro vs. function against the bind
// context at run time, not a static name list, so `firstOf`'s second
// argument (1 / 0) must never be evaluated once the first succeeds.
func TestBindMacroNewNameReceivesUnevaluatedArgs(t *testing.T) {
	bc := NewBindContext()
	bc.BindMacro("firstOf", func(mc *macroCall) CelValue {
		v := mc.eval(mc.args[0], mc.bindings)
		if !v.IsErr() {
			return v
		}
		return mc.eval(mc.args[1], mc.bindings)
	})
	require.NoError(t, bc.FromSource("t", `firstOf(5, 1 / 0)`))
	v, err := bc.Exec(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.AsInt())
}
