package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalExpr(t *testing.T, src string, bindings Bindings) CelValue {
	t.Helper()
	bc := NewBindContext()
	require.NoError(t, bc.FromSource("t", src))
	v, err := bc.Exec(context.Background(), "t", bindings)
	require.NoError(t, err)
	return v
}

func TestArithmeticAndPrecedence(t *testing.T) {
	v := evalExpr(t, "1 + 2 * 3 - 4 / 2", nil)
	assert.Equal(t, int64(5), v.AsInt())
}

func TestDivideByZeroIsErrValue(t *testing.T) {
	v := evalExpr(t, "1 / 0", nil)
	require.True(t, v.IsErr())
	assert.Equal(t, ErrDivideByZero, v.AsErr().Kind)
}

func TestFloatDivideByZeroIsIEEEInf(t *testing.T) {
	v := evalExpr(t, "1.0 / 0.0", nil)
	require.False(t, v.IsErr())
	assert.True(t, v.AsFloat() > 0)
}

func TestShortCircuitAndAbsorbsRightError(t *testing.T) {
	v := evalExpr(t, "false && (1 / 0 > 0)", nil)
	require.False(t, v.IsErr())
	assert.False(t, v.AsBool())
}

func TestShortCircuitOrAbsorbsRightError(t *testing.T) {
	v := evalExpr(t, "true || (1 / 0 > 0)", nil)
	require.False(t, v.IsErr())
	assert.True(t, v.AsBool())
}

func TestAndPropagatesErrorWhenUndetermined(t *testing.T) {
	v := evalExpr(t, "(1 / 0 > 0) && true", nil)
	assert.True(t, v.IsErr())
}

func TestTernaryOnlyEvaluatesTakenBranch(t *testing.T) {
	v := evalExpr(t, "true ? 1 : (1 / 0)", nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(1), v.AsInt())
}

func TestTernaryCondErrorShortCircuits(t *testing.T) {
	v := evalExpr(t, "(1 / 0 > 0) ? 1 : 2", nil)
	assert.True(t, v.IsErr())
}

func TestUnboundIdentifierIsBindingError(t *testing.T) {
	bc := NewBindContext()
	require.NoError(t, bc.FromSource("t", "x + 1"))
	_, err := bc.Exec(context.Background(), "t", nil)
	require.Error(t, err)
}

func TestBoundIdentifier(t *testing.T) {
	v := evalExpr(t, "x + 1", Bindings{"x": IntValue(41)})
	assert.Equal(t, int64(42), v.AsInt())
}

func TestListIndexNegative(t *testing.T) {
	v := evalExpr(t, "[1, 2, 3][-1]", nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(3), v.AsInt())
}

func TestMapAccessMissingFieldIsAttributeError(t *testing.T) {
	v := evalExpr(t, `{"a": 1}.b`, nil)
	require.True(t, v.IsErr())
	assert.Equal(t, ErrAttribute, v.AsErr().Kind)
}

func TestStringConcatAndInOperator(t *testing.T) {
	v := evalExpr(t, `"foo" + "bar" == "foobar"`, nil)
	assert.True(t, v.AsBool())
	v2 := evalExpr(t, `3 in [1, 2, 3]`, nil)
	assert.True(t, v2.AsBool())
}

func TestFStringFormatting(t *testing.T) {
	v := evalExpr(t, `f"sum={1+2}"`, nil)
	assert.Equal(t, "sum=3", v.AsString())
}
