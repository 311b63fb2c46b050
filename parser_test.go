package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrecedence(t *testing.T) {
	node, err := ParseExprString("1 + 2 * 3")
	require.NoError(t, err)
	bin, ok := node.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, OpAdd, bin.Op)
	rhs, ok := bin.Right.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, OpMul, rhs.Op)
}

func TestParseTernaryRightAssoc(t *testing.T) {
	node, err := ParseExprString("a ? b : c ? d : e")
	require.NoError(t, err)
	tern, ok := node.(*TernaryNode)
	require.True(t, ok)
	_, ok = tern.Else.(*TernaryNode)
	assert.True(t, ok, "else branch should itself be a ternary")
}

func TestParseDoubleNegationCancels(t *testing.T) {
	node, err := ParseExprString("!!true")
	require.NoError(t, err)
	lit, ok := node.(*LiteralNode)
	require.True(t, ok, "!! should cancel down to the bare literal")
	assert.Equal(t, KindBool, lit.Value.Kind)
	assert.True(t, lit.Value.AsBool())
}

func TestParseRelationDoesNotChain(t *testing.T) {
	_, err := ParseExprString("1 < 2 < 3")
	require.Error(t, err)
}

func TestParseMemberIndexCallChain(t *testing.T) {
	node, err := ParseExprString("a.b[0].c(1, 2)")
	require.NoError(t, err)
	call, ok := node.(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "c", call.Func)
	assert.Len(t, call.Args, 2)
	idx, ok := call.Receiver.(*IndexNode)
	require.True(t, ok)
	_, ok = idx.Receiver.(*MemberNode)
	assert.True(t, ok)
}

func TestParseRootedIdent(t *testing.T) {
	node, err := ParseExprString(".pkg.Name")
	require.NoError(t, err)
	member, ok := node.(*MemberNode)
	require.True(t, ok)
	assert.Equal(t, "Name", member.Field)
	ident, ok := member.Receiver.(*IdentNode)
	require.True(t, ok)
	assert.True(t, ident.Rooted)
	assert.Equal(t, "pkg", ident.Name)
}

func TestParseListAndMapLiterals(t *testing.T) {
	node, err := ParseExprString(`[1, 2, {"a": 1}]`)
	require.NoError(t, err)
	list, ok := node.(*ListNode)
	require.True(t, ok)
	require.Len(t, list.Items, 3)
	_, ok = list.Items[2].(*MapNode)
	assert.True(t, ok)
}
