package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionBuiltins(t *testing.T) {
	assert.Equal(t, int64(42), evalExpr(t, `int("42")`, nil).AsInt())
	assert.Equal(t, uint64(42), evalExpr(t, `uint(42)`, nil).AsUInt())
	assert.Equal(t, 42.0, evalExpr(t, `double(42)`, nil).AsFloat())
	assert.Equal(t, "42", evalExpr(t, `string(42)`, nil).AsString())
	assert.True(t, evalExpr(t, `bool("true")`, nil).AsBool())
}

func TestSizeBuiltinCodepoints(t *testing.T) {
	v := evalExpr(t, `size("héllo")`, nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(5), v.AsInt())
}

func TestSizeMethodForm(t *testing.T) {
	v := evalExpr(t, `[1, 2, 3].size()`, nil)
	assert.Equal(t, int64(3), v.AsInt())
}

func TestStringMethods(t *testing.T) {
	assert.True(t, evalExpr(t, `"hello world".contains("world")`, nil).AsBool())
	assert.True(t, evalExpr(t, `"HELLO".contains_i("hello")`, nil).AsBool())
	assert.True(t, evalExpr(t, `"hello".startsWith("he")`, nil).AsBool())
	assert.True(t, evalExpr(t, `"hello".endsWith("lo")`, nil).AsBool())
	assert.Equal(t, "HELLO", evalExpr(t, `"hello".toUpper()`, nil).AsString())
}

func TestRegexMatches(t *testing.T) {
	v := evalExpr(t, `"abc123".matches("[a-z]+[0-9]+")`, nil)
	assert.True(t, v.AsBool())
}

func TestMathBuiltins(t *testing.T) {
	assert.Equal(t, int64(5), evalExpr(t, `abs(-5)`, nil).AsInt())
	assert.Equal(t, 2.0, evalExpr(t, `sqrt(4.0)`, nil).AsFloat())
	assert.Equal(t, int64(1), evalExpr(t, `min(1, 2)`, nil).AsInt())
	assert.Equal(t, int64(2), evalExpr(t, `max(1, 2)`, nil).AsInt())
}

func TestAbsMinIntOverflows(t *testing.T) {
	v := evalExpr(t, `abs(-9223372036854775808)`, nil)
	assert.True(t, v.IsErr())
}

func TestSortStable(t *testing.T) {
	v := evalExpr(t, `sort([3, 1, 2])`, nil)
	require.False(t, v.IsErr())
	got := v.AsList()
	assert.Equal(t, int64(1), got[0].AsInt())
	assert.Equal(t, int64(2), got[1].AsInt())
	assert.Equal(t, int64(3), got[2].AsInt())
}

func TestTimestampAccessors(t *testing.T) {
	v := evalExpr(t, `timestamp("2024-03-15T00:00:00Z").getFullYear()`, nil)
	require.False(t, v.IsErr())
	assert.Equal(t, int64(2024), v.AsInt())

	month := evalExpr(t, `timestamp("2024-03-15T00:00:00Z").getMonth()`, nil)
	assert.Equal(t, int64(2), month.AsInt(), "getMonth is 0-based")
}
