package exec

import (
	"context"
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// Execute runs a parsed, read-only query statement against db and
// returns its result relation. stmt must be the *ast.SelectStmt or
// *ast.SetOp sqlparse.Parse hands back for KindSelect statements.
func Execute(ctx context.Context, db *sqltypes.Database, stmt ast.Statement, params []sqltypes.Value) (*Relation, error) {
	qc := newQueryContext(ctx, db, params)
	return runStatement(qc, stmt, nil)
}

// runStatement dispatches a query body — used both at the top level and
// recursively for CTEs, derived tables, and subqueries, always against
// the same queryContext so CTE visibility and subquery memoization span
// the whole statement.
func runStatement(qc *queryContext, stmt ast.Statement, outer *rowEnv) (*Relation, error) {
	if err := qc.checkCancel(); err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return runSelect(qc, s, outer)
	case *ast.SetOp:
		return runSetOp(qc, s, outer)
	default:
		return nil, flaterr.New(flaterr.ErrTypeFeature, "unsupported query form", nil)
	}
}

// processWith materializes a WITH clause's CTEs in declaration order into
// qc.ctes, returning a restore func that undoes the bindings once the
// enclosing query finishes — so a CTE defined in one sibling subquery
// does not leak into another. Forward and self references fail with
// SchemaError ("unknown table") since a CTE is only registered after its
// own body finishes running; recursive CTEs are rejected outright.
func processWith(qc *queryContext, w *ast.WithClause) (func(), error) {
	if w == nil {
		return func() {}, nil
	}
	if w.Recursive {
		return nil, flaterr.New(flaterr.ErrTypeFeature, "recursive CTEs are not supported", nil)
	}

	type saved struct {
		name string
		rel  *Relation
		had  bool
	}
	var restores []saved

	restore := func() {
		for _, s := range restores {
			if s.had {
				qc.ctes[s.name] = s.rel
			} else {
				delete(qc.ctes, s.name)
			}
		}
	}

	for _, cte := range w.CTEs {
		key := strings.ToLower(cte.Name)
		prev, had := qc.ctes[key]
		restores = append(restores, saved{name: key, rel: prev, had: had})

		rel, err := runStatement(qc, cte.Query, nil)
		if err != nil {
			restore()
			return nil, err
		}

		if len(cte.Columns) > 0 {
			if len(cte.Columns) != len(rel.Schema) {
				restore()
				return nil, flaterr.New(flaterr.ErrTypeSchema, "CTE "+cte.Name+" column list arity mismatch", nil)
			}
			renamed := make(Schema, len(rel.Schema))
			for i, nm := range cte.Columns {
				renamed[i] = ColRef{Alias: key, Name: nm, Type: rel.Schema[i].Type}
			}
			rel = &Relation{Schema: renamed, Rows: rel.Rows}
		} else {
			rel = &Relation{Schema: rel.Schema.WithAlias(key), Rows: rel.Rows}
		}
		qc.ctes[key] = rel
	}

	return restore, nil
}
