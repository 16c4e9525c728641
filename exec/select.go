package exec

import (
	"sort"
	"strconv"
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/eval"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// runSelect implements the evaluation pipeline of spec.md §4.2 steps
// 3-11 for a single (non-set-operation) SELECT body: FROM/JOIN, WHERE,
// GROUP BY/HAVING, window functions, projection, DISTINCT, ORDER BY,
// LIMIT/OFFSET.
func runSelect(qc *queryContext, s *ast.SelectStmt, outer *rowEnv) (*Relation, error) {
	restore, err := processWith(qc, s.With)
	if err != nil {
		return nil, err
	}
	defer restore()

	from, err := resolveFrom(qc, s.From, outer)
	if err != nil {
		return nil, err
	}

	filtered, err := filterWhere(qc, from.Schema, from.Rows, s.Where, outer)
	if err != nil {
		return nil, err
	}

	distinctOnExprs, columns := extractDistinctOn(s.Columns)

	aggCalls := append(collectFromItems(columns, isAggregateCall), collectFromExpr(s.Having, isAggregateCall)...)
	aggCalls = append(aggCalls, collectFromOrderBy(s.OrderBy, isAggregateCall)...)
	grouped := len(aggCalls) > 0 || len(s.GroupBy) > 0

	items, err := expandItems(columns, from.Schema)
	if err != nil {
		return nil, err
	}

	var outSchema Schema
	var outRows []sqltypes.Row
	var sortEnvs []*rowEnv

	if grouped {
		groups, err := groupRows(qc, from.Schema, filtered, s.GroupBy, outer)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			if err := qc.checkCancel(); err != nil {
				return nil, err
			}
			rep := nullRow(from.Schema)
			if len(g.rows) > 0 {
				rep = g.rows[0]
			}
			env := &rowEnv{
				qc: qc, schema: from.Schema, row: rep, outer: outer,
				agg: func(f *ast.FuncExpr) (sqltypes.Value, error) {
					return aggregateValue(qc, from.Schema, g.rows, f, outer)
				},
			}
			if s.Having != nil {
				hv, err := eval.Eval(s.Having, env)
				if err != nil {
					return nil, err
				}
				if hv.Null || !hv.Bool {
					continue
				}
			}
			row, err := projectRow(items, env)
			if err != nil {
				return nil, err
			}
			if outSchema == nil {
				outSchema = buildOutputSchema(items, from.Schema)
			}
			outRows = append(outRows, row)
			sortEnvs = append(sortEnvs, env)
		}
		if outSchema == nil {
			outSchema = buildOutputSchema(items, from.Schema)
		}
	} else {
		winCalls := append(collectFromItems(columns, isWindowCall), collectFromOrderBy(s.OrderBy, isWindowCall)...)
		winValues := make(map[*ast.FuncExpr][]sqltypes.Value, len(winCalls))
		for _, wf := range winCalls {
			vals, err := windowValues(qc, from.Schema, filtered, wf, outer)
			if err != nil {
				return nil, err
			}
			winValues[wf] = vals
		}

		outSchema = buildOutputSchema(items, from.Schema)
		for i, row := range filtered {
			if err := qc.checkCancel(); err != nil {
				return nil, err
			}
			rowIdx := i
			env := &rowEnv{
				qc: qc, schema: from.Schema, row: row, outer: outer,
				win: func(f *ast.FuncExpr) (sqltypes.Value, error) {
					if vals, ok := winValues[f]; ok {
						return vals[rowIdx], nil
					}
					return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unresolved window function", nil)
				},
			}
			out, err := projectRow(items, env)
			if err != nil {
				return nil, err
			}
			outRows = append(outRows, out)
			sortEnvs = append(sortEnvs, env)
		}
	}

	// DISTINCT ON's "first row per group" is defined relative to the
	// query's ORDER BY, so ordering must happen before deduplication;
	// plain DISTINCT is order-independent and tolerates the same sequencing.
	if len(s.OrderBy) > 0 {
		if err := applyOrderBy(outSchema, outRows, sortEnvs, s.OrderBy); err != nil {
			return nil, err
		}
	}

	outRows, sortEnvs, err = applyDistinct(s.Distinct, distinctOnExprs, outRows, sortEnvs)
	if err != nil {
		return nil, err
	}

	outRows = applyLimit(outRows, s.Limit)

	return &Relation{Schema: outSchema, Rows: outRows}, nil
}

func filterWhere(qc *queryContext, schema Schema, rows []sqltypes.Row, where ast.Expr, outer *rowEnv) ([]sqltypes.Row, error) {
	if where == nil {
		return rows, nil
	}
	var out []sqltypes.Row
	for _, row := range rows {
		if err := qc.checkCancel(); err != nil {
			return nil, err
		}
		env := &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
		v, err := eval.Eval(where, env)
		if err != nil {
			return nil, err
		}
		if !v.Null && v.Bool {
			out = append(out, row)
		}
	}
	return out, nil
}

func projectRow(items []projItem, env *rowEnv) (sqltypes.Row, error) {
	row := make(sqltypes.Row, len(items))
	for i, it := range items {
		v, err := eval.Eval(it.expr, env)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func applyDistinct(plain bool, distinctOnExprs []ast.Expr, rows []sqltypes.Row, envs []*rowEnv) ([]sqltypes.Row, []*rowEnv, error) {
	if len(distinctOnExprs) > 0 {
		return distinctOn(rows, envs, distinctOnExprs)
	}
	if !plain {
		return rows, envs, nil
	}
	seen := make(map[string]bool, len(rows))
	var outRows []sqltypes.Row
	var outEnvs []*rowEnv
	for i, row := range rows {
		k := rowKey(row)
		if seen[k] {
			continue
		}
		seen[k] = true
		outRows = append(outRows, row)
		outEnvs = append(outEnvs, envs[i])
	}
	return outRows, outEnvs, nil
}

func rowKey(row sqltypes.Row) string {
	var sb strings.Builder
	for _, v := range row {
		sb.WriteString(v.Key())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

// distinctOn implements DISTINCT ON (e1, e2, ...): group by the given
// expressions' values and keep the first row per group under the rows'
// current order (the query's ORDER BY, applied before this step).
// Whether that ORDER BY begins with the DISTINCT ON expressions is not
// checked.
func distinctOn(rows []sqltypes.Row, envs []*rowEnv, exprs []ast.Expr) ([]sqltypes.Row, []*rowEnv, error) {
	seen := make(map[string]bool, len(rows))
	var outRows []sqltypes.Row
	var outEnvs []*rowEnv
	for i, env := range envs {
		var sb strings.Builder
		for _, e := range exprs {
			v, err := eval.Eval(e, env)
			if err != nil {
				return nil, nil, err
			}
			sb.WriteString(v.Key())
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		outRows = append(outRows, rows[i])
		outEnvs = append(outEnvs, env)
	}
	return outRows, outEnvs, nil
}

func applyOrderBy(schema Schema, rows []sqltypes.Row, envs []*rowEnv, orderBy []*ast.OrderByExpr) error {
	type keyed struct {
		row sqltypes.Row
		env *rowEnv
		key []sqltypes.Value
	}
	items := make([]keyed, len(rows))
	for i, row := range rows {
		key := make([]sqltypes.Value, len(orderBy))
		for j, ob := range orderBy {
			v, err := evalSortKey(ob.Expr, schema, row, envs[i])
			if err != nil {
				return err
			}
			key[j] = v
		}
		items[i] = keyed{row: row, env: envs[i], key: key}
	}

	sort.SliceStable(items, func(a, b int) bool {
		ka, kb := items[a].key, items[b].key
		for i := range ka {
			cmp, lNull, rNull := compareSortValues(ka[i], kb[i])
			if lNull || rNull {
				if lNull == rNull {
					continue
				}
				nullsFirst := orderBy[i].Desc
				if orderBy[i].NullsFirst != nil {
					nullsFirst = *orderBy[i].NullsFirst
				}
				if nullsFirst {
					return lNull
				}
				return rNull
			}
			if cmp == 0 {
				continue
			}
			if orderBy[i].Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	for i, it := range items {
		rows[i] = it.row
		envs[i] = it.env
	}
	return nil
}

func evalSortKey(expr ast.Expr, outSchema Schema, out sqltypes.Row, env *rowEnv) (sqltypes.Value, error) {
	if lit, ok := expr.(*ast.Literal); ok && lit.Type == ast.LiteralInt {
		if n, err := evalOrdinal(lit); err == nil && n >= 1 && n <= len(out) {
			return out[n-1], nil
		}
	}
	if col, ok := expr.(*ast.ColName); ok && col.Table() == "" {
		if idx, err := outSchema.Find("", col.Name()); err == nil {
			return out[idx], nil
		}
	}
	return eval.Eval(expr, env)
}

func evalOrdinal(lit *ast.Literal) (int, error) {
	n, err := strconv.Atoi(lit.Value)
	return n, err
}

func applyLimit(rows []sqltypes.Row, l *ast.Limit) []sqltypes.Row {
	if l == nil {
		return rows
	}
	offset := 0
	if l.Offset != nil {
		if n, ok := literalInt(l.Offset); ok {
			offset = n
		}
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]
	if l.Count != nil {
		if n, ok := literalInt(l.Count); ok && n < len(rows) {
			rows = rows[:n]
		}
	}
	return rows
}

func literalInt(e ast.Expr) (int, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Type != ast.LiteralInt {
		return 0, false
	}
	n, err := evalOrdinal(lit)
	return n, err == nil
}
