package exec

import (
	"context"
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/eval"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// queryContext is threaded through one top-level query's entire
// recursive evaluation (CTEs, derived tables, subqueries): it carries
// the immutable database snapshot, the CTE results visible so far, bind
// parameters for the extended-query protocol, and the cancellation
// context checked at every suspension point spec.md §5 names (subquery
// execution, CTE materialization).
type queryContext struct {
	ctx       context.Context
	db        *sqltypes.Database
	ctes      map[string]*Relation
	params    []sqltypes.Value
	subqCache map[*ast.Subquery]*eval.SubqueryResult
}

func newQueryContext(ctx context.Context, db *sqltypes.Database, params []sqltypes.Value) *queryContext {
	return &queryContext{
		ctx:       ctx,
		db:        db,
		ctes:      make(map[string]*Relation),
		params:    params,
		subqCache: make(map[*ast.Subquery]*eval.SubqueryResult),
	}
}

// checkCancel turns a context cancellation/deadline into the taxonomy's
// CancellationError; exec calls this at the start of each row-producing
// loop and before recursing into a subquery.
func (qc *queryContext) checkCancel() error {
	select {
	case <-qc.ctx.Done():
		return flaterr.New(flaterr.ErrTypeCancellation, "query cancelled", qc.ctx.Err())
	default:
		return nil
	}
}

// rowEnv implements eval.Env against one row of a Relation being
// evaluated, with an optional outer rowEnv for correlated subquery
// column resolution and an optional aggregate/window binder for grouped
// or windowed queries.
type rowEnv struct {
	qc     *queryContext
	schema Schema
	row    sqltypes.Row
	outer  *rowEnv

	// usedOuter is set when Column falls through to outer: exec uses this
	// to decide whether a subquery's result may be memoized (uncorrelated)
	// or must be re-run per outer row (correlated).
	usedOuter bool

	// agg/win provide per-call-site resolution for aggregate and window
	// function expressions; nil in a non-aggregated, non-windowed context,
	// in which case encountering one is a FeatureError.
	agg aggBinder
	win winBinder
}

type aggBinder func(e *ast.FuncExpr) (sqltypes.Value, error)
type winBinder func(e *ast.FuncExpr) (sqltypes.Value, error)

func (e *rowEnv) Column(qualifier, name string) (sqltypes.Value, error) {
	idx, err := e.schema.Find(qualifier, name)
	if err == nil {
		return e.row[idx], nil
	}
	if e.outer != nil {
		e.usedOuter = true
		return e.outer.Column(qualifier, name)
	}
	return sqltypes.Value{}, err
}

func (e *rowEnv) Param(p *ast.Param) (sqltypes.Value, error) {
	idx := p.Index - 1
	if p.Index == 0 {
		idx = 0
	}
	if idx < 0 || idx >= len(e.qc.params) {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeProtocol, "bind parameter out of range", nil)
	}
	return e.qc.params[idx], nil
}

func (e *rowEnv) Aggregate(f *ast.FuncExpr) (sqltypes.Value, error) {
	if e.agg == nil {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature,
			strings.ToUpper(f.Name)+" may only appear in a select list, HAVING, or ORDER BY of an aggregated query", nil)
	}
	return e.agg(f)
}

func (e *rowEnv) Window(f *ast.FuncExpr) (sqltypes.Value, error) {
	if e.win == nil {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "window function outside of a windowed query", nil)
	}
	return e.win(f)
}

// RunSubquery executes sub's full SELECT pipeline. Uncorrelated
// subqueries (ones whose Column resolution never escapes to an outer
// row) are memoized for the query's lifetime; correlated ones re-run
// per outer row, per spec.md §4.2.
func (e *rowEnv) RunSubquery(sub *ast.Subquery) (*eval.SubqueryResult, error) {
	if cached, ok := e.qc.subqCache[sub]; ok {
		return cached, nil
	}
	if err := e.qc.checkCancel(); err != nil {
		return nil, err
	}

	nested := &rowEnv{qc: e.qc, outer: e}
	rel, err := runStatement(e.qc, sub.Select, nested)
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(rel.Schema))
	for i, c := range rel.Schema {
		cols[i] = c.Name
	}
	result := &eval.SubqueryResult{Columns: cols, Rows: rel.Rows}

	if !nested.usedOuter {
		e.qc.subqCache[sub] = result
	}
	return result, nil
}
