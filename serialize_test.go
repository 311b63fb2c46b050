package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramSerializeRoundTrip(t *testing.T) {
	prog, err := ParseProgram(`x + 1`)
	require.NoError(t, err)

	data, err := prog.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, prog.Source, restored.Source)
	assert.Equal(t, prog.FreeIdents, restored.FreeIdents)
	assert.Equal(t, len(prog.Code), len(restored.Code))
	for i := range prog.Code {
		assert.Equal(t, prog.Code[i].Opcode(), restored.Code[i].Opcode())
	}
}

func TestProgramSerializeRoundTripWithMacroArgs(t *testing.T) {
	prog, err := ParseProgram(`[1, 2, 3].filter(x, x > 1)`)
	require.NoError(t, err)

	data, err := prog.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, len(prog.Code), len(restored.Code))

	origCall, ok := prog.Code[len(prog.Code)-1].(CallInst)
	require.True(t, ok)
	restoredCall, ok := restored.Code[len(restored.Code)-1].(CallInst)
	require.True(t, ok)

	require.Equal(t, len(origCall.ArgProgs), len(restoredCall.ArgProgs))
	for i := range origCall.ArgProgs {
		assert.Equal(t, origCall.ArgProgs[i].Source, restoredCall.ArgProgs[i].Source)
		assert.Equal(t, len(origCall.ArgProgs[i].Code), len(restoredCall.ArgProgs[i].Code))
	}
}

func TestDeserializedProgramExecutes(t *testing.T) {
	prog, err := ParseProgram(`x * 2`)
	require.NoError(t, err)
	data, err := prog.Serialize()
	require.NoError(t, err)
	restored, err := Deserialize(data)
	require.NoError(t, err)

	bc := NewBindContext()
	bc.AddProgram("restored", restored)
	v, err := bc.Exec(context.Background(), "restored", Bindings{"x": IntValue(21)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.AsInt())
}
