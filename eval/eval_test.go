package eval

import (
	"testing"

	"github.com/freeeve/machparse"
	"github.com/freeeve/machparse/ast"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/sqltypes"
)

// parseExpr parses "SELECT <src>" and returns the projected expression,
// the same shortcut exec itself never needs (it gets a full SelectStmt
// from sqlparse) but is convenient for testing eval in isolation.
func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	stmt, err := machparse.Parse("SELECT " + src)
	require.NoError(t, err, "parsing %q", src)
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok, "expected SelectStmt for %q", src)
	require.Len(t, sel.Columns, 1)
	aliased, ok := sel.Columns[0].(*ast.AliasedExpr)
	require.True(t, ok)
	return aliased.Expr
}

// testEnv is a minimal eval.Env double: a fixed column map, no outer
// scope, no subqueries/aggregates/windows unless a test needs them.
type testEnv struct {
	cols map[string]sqltypes.Value
}

func newTestEnv(cols map[string]sqltypes.Value) *testEnv {
	return &testEnv{cols: cols}
}

func (e *testEnv) Column(qualifier, name string) (sqltypes.Value, error) {
	if v, ok := e.cols[name]; ok {
		return v, nil
	}
	return sqltypes.Value{}, assertErr("unknown column " + name)
}

func (e *testEnv) Param(p *ast.Param) (sqltypes.Value, error) {
	return sqltypes.Value{}, assertErr("no params in test env")
}

func (e *testEnv) RunSubquery(sub *ast.Subquery) (*SubqueryResult, error) {
	return nil, assertErr("no subqueries in test env")
}

func (e *testEnv) Aggregate(f *ast.FuncExpr) (sqltypes.Value, error) {
	return sqltypes.Value{}, assertErr("no aggregates in test env")
}

func (e *testEnv) Window(f *ast.FuncExpr) (sqltypes.Value, error) {
	return sqltypes.Value{}, assertErr("no windows in test env")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func eval(t *testing.T, env Env, src string) sqltypes.Value {
	t.Helper()
	v, err := Eval(parseExpr(t, src), env)
	require.NoError(t, err, src)
	return v
}

func TestEval_Literals(t *testing.T) {
	env := newTestEnv(nil)
	assert.Equal(t, int64(42), eval(t, env, "42").Int)
	assert.Equal(t, "hi", eval(t, env, "'hi'").Str)
	assert.True(t, eval(t, env, "TRUE").Bool)
	assert.True(t, eval(t, env, "NULL").Null)
}

func TestEval_Arithmetic(t *testing.T) {
	env := newTestEnv(nil)
	assert.Equal(t, int64(7), eval(t, env, "3 + 4").Int)
	assert.Equal(t, int64(12), eval(t, env, "3 * 4").Int)
	assert.Equal(t, int64(2), eval(t, env, "7 / 3").Int, "integer division truncates per spec.md §9")
	assert.Equal(t, int64(1), eval(t, env, "7 % 3").Int)
}

func TestEval_DivisionByZero_YieldsNull(t *testing.T) {
	env := newTestEnv(nil)
	v := eval(t, env, "1 / 0")
	assert.True(t, v.Null, "division by zero returns NULL per spec.md §4.1, not an error")
}

func TestEval_NullPropagation(t *testing.T) {
	env := newTestEnv(map[string]sqltypes.Value{"x": sqltypes.Null(sqltypes.KindInteger)})
	assert.True(t, eval(t, env, "x + 1").Null)
	assert.True(t, eval(t, env, "x = 1").Null)
	assert.True(t, eval(t, env, "x < 1").Null)
}

func TestEval_Comparison(t *testing.T) {
	env := newTestEnv(nil)
	assert.True(t, eval(t, env, "1 = 1").Bool)
	assert.False(t, eval(t, env, "1 = 2").Bool)
	assert.True(t, eval(t, env, "2 > 1").Bool)
	assert.True(t, eval(t, env, "'a' < 'b'").Bool)
}

func TestEval_AndOr_ThreeValued(t *testing.T) {
	env := newTestEnv(map[string]sqltypes.Value{"n": sqltypes.Null(sqltypes.KindBoolean)})
	assert.False(t, eval(t, env, "FALSE AND n").Null, "FALSE AND NULL = FALSE, determinate")
	assert.False(t, eval(t, env, "FALSE AND n").Bool)
	assert.True(t, eval(t, env, "TRUE OR n").Bool)
	assert.True(t, eval(t, env, "TRUE AND n").Null, "TRUE AND NULL = NULL")
}

func TestEval_Between(t *testing.T) {
	env := newTestEnv(nil)
	assert.True(t, eval(t, env, "5 BETWEEN 1 AND 10").Bool)
	assert.False(t, eval(t, env, "5 BETWEEN 6 AND 10").Bool)
	assert.True(t, eval(t, env, "1 BETWEEN 1 AND 10").Bool, "BETWEEN is inclusive")
	assert.True(t, eval(t, env, "10 BETWEEN 1 AND 10").Bool)
}

func TestEval_In(t *testing.T) {
	env := newTestEnv(nil)
	assert.True(t, eval(t, env, "1 IN (1, 2, 3)").Bool)
	assert.False(t, eval(t, env, "5 IN (1, 2, 3)").Bool)
	assert.True(t, eval(t, env, "5 NOT IN ()").Bool, "NOT IN with empty list is true per spec.md §9")
}

func TestEval_In_NullSemantics(t *testing.T) {
	env := newTestEnv(nil)
	assert.True(t, eval(t, env, "NULL IN (1, 2)").Null)
	assert.True(t, eval(t, env, "NULL NOT IN (1, 2)").Null)
	found := eval(t, env, "1 NOT IN (1, NULL)")
	assert.False(t, found.Null, "1 NOT IN (1, NULL) is determinate: 1 is found in the list")
	assert.False(t, found.Bool)

	v := eval(t, env, "5 NOT IN (1, NULL)")
	assert.True(t, v.Null, "NOT IN with an unmatched NULL on the right is NULL, not false")
}

func TestEval_Like(t *testing.T) {
	env := newTestEnv(nil)
	assert.True(t, eval(t, env, "'hello' LIKE 'h%'").Bool)
	assert.True(t, eval(t, env, "'hello' LIKE 'h_llo'").Bool)
	assert.False(t, eval(t, env, "'hello' LIKE 'world'").Bool)
	assert.True(t, eval(t, env, "'hello' NOT LIKE 'world'").Bool)
}

func TestEval_IsNull(t *testing.T) {
	env := newTestEnv(map[string]sqltypes.Value{"x": sqltypes.Null(sqltypes.KindInteger)})
	assert.True(t, eval(t, env, "x IS NULL").Bool)
	assert.False(t, eval(t, env, "x IS NOT NULL").Bool)
}

func TestEval_Case(t *testing.T) {
	env := newTestEnv(nil)
	v := eval(t, env, "CASE WHEN 1 = 2 THEN 'a' WHEN 1 = 1 THEN 'b' ELSE 'c' END")
	assert.Equal(t, "b", v.Str)
	v = eval(t, env, "CASE WHEN 1 = 2 THEN 'a' ELSE 'c' END")
	assert.Equal(t, "c", v.Str)
}

func TestEval_Coalesce(t *testing.T) {
	env := newTestEnv(nil)
	v := eval(t, env, "COALESCE(NULL, NULL, 3)")
	assert.Equal(t, int64(3), v.Int)
}

func TestEval_Nullif(t *testing.T) {
	env := newTestEnv(nil)
	assert.True(t, eval(t, env, "NULLIF(1, 1)").Null)
	assert.Equal(t, int64(1), eval(t, env, "NULLIF(1, 2)").Int)
}

func TestEval_StringFunctions(t *testing.T) {
	env := newTestEnv(nil)
	assert.Equal(t, "ABC", eval(t, env, "UPPER('abc')").Str)
	assert.Equal(t, "abc", eval(t, env, "LOWER('ABC')").Str)
	assert.Equal(t, int64(5), eval(t, env, "LENGTH('hello')").Int)
	assert.Equal(t, "ell", eval(t, env, "SUBSTRING('hello', 2, 3)").Str)
	assert.Equal(t, "hel", eval(t, env, "LEFT('hello', 3)").Str)
	assert.Equal(t, "llo", eval(t, env, "RIGHT('hello', 3)").Str)
}

func TestEval_NumericFunctions(t *testing.T) {
	env := newTestEnv(nil)
	assert.Equal(t, int64(5), eval(t, env, "ABS(-5)").Int)
	assert.Equal(t, int64(3), eval(t, env, "CEIL(2.1)").Int)
	assert.Equal(t, int64(2), eval(t, env, "FLOOR(2.9)").Int)
	assert.Equal(t, int64(1), eval(t, env, "MOD(7, 3)").Int)
}

func TestEval_DecimalArithmetic_StaysExact(t *testing.T) {
	env := newTestEnv(map[string]sqltypes.Value{
		"price": sqltypes.Decimal(decimal.RequireFromString("10.00")),
	})
	v := eval(t, env, "price + 0.5")
	require.Equal(t, sqltypes.KindDecimal, v.Kind)
	assert.Equal(t, "10.50", v.Dec.StringFixed(2))
}

func TestEval_UnaryMinusAndNot(t *testing.T) {
	env := newTestEnv(nil)
	assert.Equal(t, int64(-5), eval(t, env, "-5").Int)
	assert.True(t, eval(t, env, "NOT FALSE").Bool)
}

func TestEval_UnknownFunction(t *testing.T) {
	env := newTestEnv(nil)
	_, err := Eval(parseExpr(t, "NOT_A_REAL_FN(1)"), env)
	assert.Error(t, err)
}
