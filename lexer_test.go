package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	tz := newTokenizer(src)
	var toks []Token
	for {
		tok, err := tz.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks
		}
	}
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "<= >= == != && || ! < >")
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{
		TokLe, TokGe, TokEq, TokNe, TokAnd, TokOr, TokBang, TokLt, TokGt, TokEOF,
	}, kinds)
}

func TestLexNumbers(t *testing.T) {
	toks := lexAll(t, "42 42u 0x2A 1.5 1e3 1e 3")
	require.Equal(t, TokInt, toks[0].Kind)
	assert.EqualValues(t, 42, toks[0].IntVal)

	require.Equal(t, TokUInt, toks[1].Kind)
	assert.EqualValues(t, 42, toks[1].IntVal)

	require.Equal(t, TokInt, toks[2].Kind)
	assert.EqualValues(t, 42, toks[2].IntVal)

	require.Equal(t, TokFloat, toks[3].Kind)
	assert.Equal(t, 1.5, toks[3].FloatVal)

	require.Equal(t, TokFloat, toks[4].Kind)
	assert.Equal(t, 1000.0, toks[4].FloatVal)

	// "1e" with no exponent digits backtracks to int(1) then ident(e)
	require.Equal(t, TokInt, toks[5].Kind)
	assert.EqualValues(t, 1, toks[5].IntVal)
	require.Equal(t, TokIdent, toks[6].Kind)
	assert.Equal(t, "e", toks[6].Ident)
}

func TestLexStringEscapes(t *testing.T) {
	toks := lexAll(t, `"a\nb\tc" r"raw\n" b"bytes"`)
	require.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, "a\nb\tc", toks[0].StrVal)

	require.Equal(t, TokString, toks[1].Kind)
	assert.Equal(t, `raw\n`, toks[1].StrVal)

	require.Equal(t, TokByteString, toks[2].Kind)
	assert.Equal(t, []byte("bytes"), toks[2].BytesVal)
}

func TestLexFString(t *testing.T) {
	toks := lexAll(t, `f"hi {name}, ${1+1}!"`)
	require.Equal(t, TokFString, toks[0].Kind)
	segs := toks[0].Segments
	require.Len(t, segs, 5)
	assert.Equal(t, "hi ", segs[0].Text)
	assert.True(t, segs[1].IsExpr)
	assert.Equal(t, "name", segs[1].Text)
	assert.Equal(t, ", ", segs[2].Text)
	assert.True(t, segs[3].IsExpr)
	assert.Equal(t, "1+1", segs[3].Text)
	assert.Equal(t, "!", segs[4].Text)
}

func TestLexReservedWords(t *testing.T) {
	toks := lexAll(t, "true false null in match case other")
	kinds := []TokenKind{TokTrue, TokFalse, TokNull, TokIn, TokMatch, TokCase, TokIdent, TokEOF}
	for i, tok := range toks {
		assert.Equal(t, kinds[i], tok.Kind)
	}
}
