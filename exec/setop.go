package exec

import (
	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// runSetOp implements UNION/INTERSECT/EXCEPT per spec.md §4.2 step 2:
// evaluate both sides, check arity, unify column types, combine by
// multiset semantics, then apply the set operation's own trailing ORDER
// BY/LIMIT (both sides already applied their own).
func runSetOp(qc *queryContext, s *ast.SetOp, outer *rowEnv) (*Relation, error) {
	left, err := runStatement(qc, s.Left, outer)
	if err != nil {
		return nil, err
	}
	right, err := runStatement(qc, s.Right, outer)
	if err != nil {
		return nil, err
	}
	if len(left.Schema) != len(right.Schema) {
		return nil, flaterr.New(flaterr.ErrTypeSchema, "set operation requires the same number of columns on both sides", nil)
	}

	schema := unifySchemas(left.Schema, right.Schema)

	var rows []sqltypes.Row
	switch s.Type {
	case ast.Union:
		rows = append(append([]sqltypes.Row{}, left.Rows...), right.Rows...)
		if !s.All {
			rows = dedupRows(rows)
		}
	case ast.Intersect:
		rows = intersectRows(left.Rows, right.Rows, s.All)
	case ast.Except:
		rows = exceptRows(left.Rows, right.Rows, s.All)
	default:
		return nil, flaterr.New(flaterr.ErrTypeFeature, "unsupported set operation", nil)
	}

	rel := &Relation{Schema: schema, Rows: rows}

	if len(s.OrderBy) > 0 {
		envs := make([]*rowEnv, len(rel.Rows))
		for i, row := range rel.Rows {
			envs[i] = &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
		}
		if err := applyOrderBy(schema, rel.Rows, envs, s.OrderBy); err != nil {
			return nil, err
		}
	}
	rel.Rows = applyLimit(rel.Rows, s.Limit)

	return rel, nil
}

// unifySchemas takes the left side's column names and types except where
// the two sides disagree on a numeric kind, in which case the wider Text
// representation is used so no value is silently truncated.
func unifySchemas(left, right Schema) Schema {
	out := make(Schema, len(left))
	for i := range left {
		lt, rt := left[i].Type, right[i].Type
		t := lt
		if lt.Kind != rt.Kind && (lt.Numeric() || rt.Numeric()) {
			t = sqltypes.SqlType{Kind: sqltypes.KindText}
		}
		out[i] = ColRef{Alias: left[i].Alias, Name: left[i].Name, Type: t}
	}
	return out
}

func dedupRows(rows []sqltypes.Row) []sqltypes.Row {
	seen := make(map[string]bool, len(rows))
	var out []sqltypes.Row
	for _, r := range rows {
		k := rowKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

func intersectRows(left, right []sqltypes.Row, all bool) []sqltypes.Row {
	rightCounts := make(map[string]int, len(right))
	for _, r := range right {
		rightCounts[rowKey(r)]++
	}
	var out []sqltypes.Row
	seen := make(map[string]bool)
	for _, r := range left {
		k := rowKey(r)
		if rightCounts[k] <= 0 {
			continue
		}
		if !all {
			if seen[k] {
				continue
			}
			seen[k] = true
		} else {
			rightCounts[k]--
		}
		out = append(out, r)
	}
	return out
}

func exceptRows(left, right []sqltypes.Row, all bool) []sqltypes.Row {
	rightCounts := make(map[string]int, len(right))
	for _, r := range right {
		rightCounts[rowKey(r)]++
	}
	var out []sqltypes.Row
	seen := make(map[string]bool)
	for _, r := range left {
		k := rowKey(r)
		if rightCounts[k] > 0 {
			if all {
				rightCounts[k]--
			}
			continue
		}
		if !all {
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, r)
	}
	return out
}
