package cel

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCelValueStringFormatting(t *testing.T) {
	cases := []struct {
		v    CelValue
		want string
	}{
		{NullValue(), "null"},
		{BoolValue(true), "true"},
		{IntValue(-7), "-7"},
		{UIntValue(7), "7u"},
		{StringValue("hi"), "hi"},
		{ListValue([]CelValue{IntValue(1), IntValue(2)}), "[1, 2]"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.String())
	}
}

func TestCelValueMapStringSortsKeys(t *testing.T) {
	m := MapValue(map[string]CelValue{"b": IntValue(2), "a": IntValue(1)})
	assert.Equal(t, `{"a": 1, "b": 2}`, m.String())
}

func TestValuesEqualCrossTagIsFalseNotError(t *testing.T) {
	r := Eq(StringValue("1"), IntValue(1))
	assert.False(t, r.IsErr())
	assert.False(t, r.AsBool())
}

func TestValuesEqualNumericWidening(t *testing.T) {
	r := Eq(IntValue(2), FloatValue(2.0))
	assert.False(t, r.IsErr())
	assert.True(t, r.AsBool())
}

func TestNaNNeverEqual(t *testing.T) {
	nan := FloatValue(0.0 / nanZero())
	r := Eq(nan, nan)
	assert.False(t, r.IsErr())
	assert.False(t, r.AsBool(), "NaN must never equal itself")
}

func nanZero() float64 { var z float64; return z }

func TestSerializeRoundTripsCelValue(t *testing.T) {
	orig := MapValue(map[string]CelValue{
		"n":    IntValue(42),
		"list": ListValue([]CelValue{StringValue("a"), BoolValue(true)}),
	})
	data, err := gobEncodeValue(gobCelValue{Kind: orig.Kind, Map: orig.m})
	assert.NoError(t, err)

	var g gobCelValue
	assert.NoError(t, gobDecodeValue(data, &g))
	roundTripped := CelValue{Kind: g.Kind, m: g.Map}

	if diff := cmp.Diff(orig.String(), roundTripped.String()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTimestampDurationArithmetic(t *testing.T) {
	ts := TimestampValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	dur := DurationValue(24 * time.Hour)
	r := Add(ts, dur)
	assert.False(t, r.IsErr())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), r.AsTimestamp())
}
