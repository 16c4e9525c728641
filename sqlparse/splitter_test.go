package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_MultipleStatements(t *testing.T) {
	out, err := Split("SELECT 1; SELECT 2; SELECT 3")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2", "SELECT 3"}, out)
}

func TestSplit_TrailingSemicolon(t *testing.T) {
	out, err := Split("SELECT 1;")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1"}, out)
}

func TestSplit_SemicolonInsideStringLiteral(t *testing.T) {
	out, err := Split("SELECT 'a;b'; SELECT 2")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "SELECT 'a;b'", out[0])
	assert.Equal(t, "SELECT 2", out[1])
}

func TestSplit_LineComment(t *testing.T) {
	out, err := Split("SELECT 1; -- a comment with ; inside\nSELECT 2")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "SELECT 2", out[1])
}

func TestSplit_BlockComment(t *testing.T) {
	out, err := Split("SELECT 1 /* ; not a delimiter */; SELECT 2")
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestSplit_EmptyStatementsSkipped(t *testing.T) {
	out, err := Split(";;SELECT 1;;")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1"}, out)
}

func TestSplit_Empty(t *testing.T) {
	out, err := Split("")
	require.NoError(t, err)
	assert.Empty(t, out)
}
