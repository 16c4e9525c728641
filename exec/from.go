package exec

import (
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/eval"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// resolveFrom turns a FROM-clause table expression into a materialized
// Relation: CTEs and physical tables are leaves, JoinExpr/TableList fold
// two or more leaves together, and a derived-table Subquery recurses
// into runStatement.
func resolveFrom(qc *queryContext, te ast.TableExpr, outer *rowEnv) (*Relation, error) {
	if te == nil {
		return &Relation{Schema: Schema{}, Rows: []sqltypes.Row{{}}}, nil
	}
	switch t := te.(type) {
	case *ast.TableName:
		return resolveTableName(qc, t)
	case *ast.AliasedTableExpr:
		rel, err := resolveFrom(qc, t.Expr, outer)
		if err != nil {
			return nil, err
		}
		if t.Alias != "" {
			rel = &Relation{Schema: rel.Schema.WithAlias(t.Alias), Rows: rel.Rows}
		}
		return rel, nil
	case *ast.ParenTableExpr:
		return resolveFrom(qc, t.Expr, outer)
	case *ast.JoinExpr:
		return resolveJoin(qc, t, outer)
	case *ast.TableList:
		return resolveTableList(qc, t, outer)
	case *ast.Subquery:
		if err := qc.checkCancel(); err != nil {
			return nil, err
		}
		return runStatement(qc, t.Select, outer)
	default:
		return nil, flaterr.New(flaterr.ErrTypeFeature, "unsupported table expression", nil)
	}
}

func resolveTableName(qc *queryContext, t *ast.TableName) (*Relation, error) {
	name := t.Name()
	if cte, ok := qc.ctes[strings.ToLower(name)]; ok {
		return &Relation{Schema: cte.Schema, Rows: cte.Rows}, nil
	}
	tbl, ok := qc.db.Table(name)
	if !ok {
		return nil, flaterr.New(flaterr.ErrTypeSchema, "unknown table "+name, nil)
	}
	return fromTable(tbl), nil
}

func resolveTableList(qc *queryContext, t *ast.TableList, outer *rowEnv) (*Relation, error) {
	if len(t.Tables) == 0 {
		return &Relation{Schema: Schema{}, Rows: []sqltypes.Row{{}}}, nil
	}
	rel, err := resolveFrom(qc, t.Tables[0], outer)
	if err != nil {
		return nil, err
	}
	for _, next := range t.Tables[1:] {
		rhs, err := resolveFrom(qc, next, outer)
		if err != nil {
			return nil, err
		}
		rel, err = crossJoin(rel, rhs)
		if err != nil {
			return nil, err
		}
	}
	return rel, nil
}

func resolveJoin(qc *queryContext, j *ast.JoinExpr, outer *rowEnv) (*Relation, error) {
	left, err := resolveFrom(qc, j.Left, outer)
	if err != nil {
		return nil, err
	}
	right, err := resolveFrom(qc, j.Right, outer)
	if err != nil {
		return nil, err
	}

	var using []string
	switch {
	case j.Natural:
		using = commonColumns(left.Schema, right.Schema)
	case len(j.Using) > 0:
		using = j.Using
	}

	cond := j.On
	switch j.Type {
	case JoinTypeCross:
		return crossJoin(left, right)
	default:
		return equiJoin(qc, j.Type, left, right, cond, using, outer)
	}
}

// JoinType aliases are local to avoid importing ast's JoinType constants
// throughout this file under a different name.
const (
	JoinTypeInner = ast.JoinInner
	JoinTypeLeft  = ast.JoinLeft
	JoinTypeRight = ast.JoinRight
	JoinTypeFull  = ast.JoinFull
	JoinTypeCross = ast.JoinCross
)

func commonColumns(a, b Schema) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range a {
		seen[strings.ToLower(c.Name)] = true
	}
	for _, c := range b {
		if seen[strings.ToLower(c.Name)] {
			out = append(out, c.Name)
		}
	}
	return out
}

func crossJoin(left, right *Relation) (*Relation, error) {
	schema := left.Schema.Concat(right.Schema)
	rows := make([]sqltypes.Row, 0, len(left.Rows)*len(right.Rows))
	for _, lr := range left.Rows {
		for _, rr := range right.Rows {
			rows = append(rows, concatRows(lr, rr))
		}
	}
	return &Relation{Schema: schema, Rows: rows}, nil
}

// equiJoin assembles INNER/LEFT/RIGHT/FULL join results by nested-loop
// evaluation of the ON condition (or USING/NATURAL equality) against
// every candidate pair. This engine favors clarity over a hashed join
// since the tables it serves are small, document-loaded snapshots.
func equiJoin(qc *queryContext, kind ast.JoinType, left, right *Relation, cond ast.Expr, using []string, outer *rowEnv) (*Relation, error) {
	schema := left.Schema.Concat(right.Schema)
	var rows []sqltypes.Row

	leftMatched := make([]bool, len(left.Rows))
	rightMatched := make([]bool, len(right.Rows))

	for li, lr := range left.Rows {
		for ri, rr := range right.Rows {
			if err := qc.checkCancel(); err != nil {
				return nil, err
			}
			ok, err := matches(qc, schema, concatRows(lr, rr), cond, using, left.Schema, right.Schema, outer)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			leftMatched[li] = true
			rightMatched[ri] = true
			rows = append(rows, concatRows(lr, rr))
		}
	}

	if kind == ast.JoinLeft || kind == ast.JoinFull {
		for li, lr := range left.Rows {
			if !leftMatched[li] {
				rows = append(rows, concatRows(lr, nullRow(right.Schema)))
			}
		}
	}
	if kind == ast.JoinRight || kind == ast.JoinFull {
		for ri, rr := range right.Rows {
			if !rightMatched[ri] {
				rows = append(rows, concatRows(nullRow(left.Schema), rr))
			}
		}
	}

	return &Relation{Schema: schema, Rows: rows}, nil
}

func matches(qc *queryContext, schema Schema, row sqltypes.Row, cond ast.Expr, using []string, leftSchema, rightSchema Schema, outer *rowEnv) (bool, error) {
	if cond == nil && len(using) == 0 {
		return true, nil
	}
	if len(using) > 0 {
		for _, col := range using {
			li, err := leftSchema.Find("", col)
			if err != nil {
				return false, err
			}
			ri, err := rightSchema.Find("", col)
			if err != nil {
				return false, err
			}
			if !row[li].Equivalent(row[len(leftSchema)+ri]) {
				return false, nil
			}
		}
		return true, nil
	}
	env := &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
	v, err := eval.Eval(cond, env)
	if err != nil {
		return false, err
	}
	return !v.Null && v.Bool, nil
}
