package sqlparse

import (
	"testing"

	"github.com/freeeve/machparse/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/flaterr"
)

func TestParse_Select(t *testing.T) {
	stmt, err := Parse("SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, stmt.Kind)
	require.NotNil(t, stmt.Stmt)
	_, ok := stmt.Stmt.(*ast.SelectStmt)
	assert.True(t, ok)
}

func TestParse_SetOp(t *testing.T) {
	stmt, err := Parse("SELECT 1 UNION SELECT 2")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, stmt.Kind)
	_, ok := stmt.Stmt.(*ast.SetOp)
	assert.True(t, ok)
}

func TestParse_With(t *testing.T) {
	stmt, err := Parse("WITH r AS (SELECT 1) SELECT * FROM r")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, stmt.Kind)
}

func TestParse_TransactionNoop(t *testing.T) {
	for _, sql := range []string{"BEGIN", "begin", "COMMIT", "ROLLBACK", "START TRANSACTION"} {
		stmt, err := Parse(sql)
		require.NoError(t, err, sql)
		assert.Equal(t, KindTransactionNoop, stmt.Kind, sql)
		assert.Nil(t, stmt.Stmt)
	}
}

func TestParse_SessionSet(t *testing.T) {
	stmt, err := Parse("SET NAMES utf8")
	require.NoError(t, err)
	assert.Equal(t, KindSessionSet, stmt.Kind)
}

func TestParse_UnsupportedStatement(t *testing.T) {
	stmt, err := Parse("INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	assert.Equal(t, KindUnsupported, stmt.Kind)
}

func TestParse_SyntaxErrorIsParseError(t *testing.T) {
	_, err := Parse("SELECT FROM FROM FROM")
	require.Error(t, err)
	assert.True(t, flaterr.IsParseError(err))
}

func TestParse_SessionVarRewrite(t *testing.T) {
	stmt, err := Parse("SELECT @@version")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, stmt.Kind)
}

func TestParse_DistinctOnRewrite(t *testing.T) {
	stmt, err := Parse("SELECT DISTINCT ON (dept) dept, name FROM emp")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, stmt.Kind)
	sel, ok := stmt.Stmt.(*ast.SelectStmt)
	require.True(t, ok)
	assert.True(t, sel.Distinct)
}

func TestStatement_SelectStmt(t *testing.T) {
	stmt, err := Parse("SELECT 1")
	require.NoError(t, err)
	assert.Same(t, stmt.Stmt, stmt.SelectStmt())
}
