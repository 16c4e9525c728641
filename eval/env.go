// Package eval evaluates machparse expression trees against a single row
// of a query, implementing spec.md's type system, SQL three-valued
// logic, and scalar function library. It knows nothing about multi-table
// row layout, joins, or how a subquery's own SELECT pipeline runs — exec
// supplies those through the Env interface, keeping eval a pure function
// of (expression, environment) -> value.
package eval

import (
	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/sqltypes"
)

// SubqueryResult is what exec hands back after running a correlated or
// uncorrelated subquery's full pipeline, for eval to reduce to a scalar,
// an IN-list, or an EXISTS boolean.
type SubqueryResult struct {
	Columns []string
	Rows    []sqltypes.Row
}

// Env is the bridge between a context-free expression tree and one
// specific row of one specific query, implemented by exec.
type Env interface {
	// Column resolves a (possibly qualified) column reference against the
	// row currently being evaluated.
	Column(qualifier, name string) (sqltypes.Value, error)
	// Param resolves a bind parameter (?, $1, :name) bound for the
	// currently executing statement (extended query protocol).
	Param(p *ast.Param) (sqltypes.Value, error)
	// RunSubquery executes sub's full SELECT pipeline — correlated
	// subqueries re-run per outer row, uncorrelated ones are memoized by
	// exec — and returns its result rows.
	RunSubquery(sub *ast.Subquery) (*SubqueryResult, error)
	// Aggregate resolves an aggregate function call (COUNT/SUM/AVG/MIN/MAX)
	// appearing in a projection/HAVING/ORDER BY expression against the
	// current group. Eval itself never sums or counts across rows — exec
	// precomputes one scalar per group and hands it back here.
	Aggregate(e *ast.FuncExpr) (sqltypes.Value, error)
	// Window resolves a window function call (ROW_NUMBER/RANK/...) against
	// the row currently being projected, using exec's precomputed
	// per-row window assignment for that OVER(...) spec.
	Window(e *ast.FuncExpr) (sqltypes.Value, error)
}
