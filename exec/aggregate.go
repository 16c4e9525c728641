package exec

import (
	"strings"

	"github.com/freeeve/machparse/ast"
	"github.com/shopspring/decimal"

	"github.com/mstgnz/flatsql/eval"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// group is one GROUP BY bucket: the rows that fell into it, in first-seen
// order. The executor uses rows[0] as the representative for expressions
// that are functionally dependent on the grouping key (plain GROUP BY
// columns).
type group struct {
	key  string
	rows []sqltypes.Row
}

// groupRows partitions rows by the tuple of groupBy expression values
// evaluated against schema, Null considered equal to Null per spec.md
// §4.2. With no GROUP BY clause, every row falls into a single group
// (the "whole table is one group" shape a bare aggregate projection uses).
func groupRows(qc *queryContext, schema Schema, rows []sqltypes.Row, groupBy []ast.Expr, outer *rowEnv) ([]*group, error) {
	if len(groupBy) == 0 {
		return []*group{{key: "", rows: rows}}, nil
	}
	index := make(map[string]*group)
	var order []string
	for _, row := range rows {
		if err := qc.checkCancel(); err != nil {
			return nil, err
		}
		env := &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
		var sb strings.Builder
		for _, ge := range groupBy {
			v, err := eval.Eval(ge, env)
			if err != nil {
				return nil, err
			}
			sb.WriteString(v.Key())
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		g, ok := index[key]
		if !ok {
			g = &group{key: key}
			index[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}
	out := make([]*group, len(order))
	for i, k := range order {
		out[i] = index[k]
	}
	return out, nil
}

// aggregateValue computes one aggregate function call over a group's rows.
func aggregateValue(qc *queryContext, schema Schema, rows []sqltypes.Row, f *ast.FuncExpr, outer *rowEnv) (sqltypes.Value, error) {
	name := strings.ToUpper(f.Name)

	if name == "COUNT" && len(f.Args) == 1 {
		if _, ok := f.Args[0].(*ast.StarExpr); ok {
			return sqltypes.BigInt(int64(len(rows))), nil
		}
	}

	values := make([]sqltypes.Value, 0, len(rows))
	for _, row := range rows {
		env := &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
		var arg ast.Expr
		if len(f.Args) > 0 {
			arg = f.Args[0]
		}
		v, err := eval.Eval(arg, env)
		if err != nil {
			return sqltypes.Value{}, err
		}
		values = append(values, v)
	}

	if f.Distinct {
		values = dedupValues(values)
	}

	switch name {
	case "COUNT":
		n := 0
		for _, v := range values {
			if !v.Null {
				n++
			}
		}
		return sqltypes.BigInt(int64(n)), nil
	case "SUM":
		return sumValues(values)
	case "AVG":
		return avgValues(values)
	case "MIN":
		return extremeValues(values, false)
	case "MAX":
		return extremeValues(values, true)
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported aggregate "+name, nil)
	}
}

func dedupValues(values []sqltypes.Value) []sqltypes.Value {
	seen := make(map[string]bool, len(values))
	out := make([]sqltypes.Value, 0, len(values))
	for _, v := range values {
		k := v.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// sumValues implements SUM over a column, promoting Integer to BigInt per
// spec.md §4.2 to avoid client-visible overflow, and yielding Null over an
// empty or all-Null group.
func sumValues(values []sqltypes.Value) (sqltypes.Value, error) {
	var anySeen bool
	var intSum int64
	var fltSum float64
	var decSum decimal.Decimal
	kind := sqltypes.KindBigInt
	for _, v := range values {
		if v.Null {
			continue
		}
		anySeen = true
		switch v.Kind {
		case sqltypes.KindInteger, sqltypes.KindBigInt:
			intSum += v.Int
		case sqltypes.KindFloat:
			kind = sqltypes.KindFloat
			fltSum += v.Float
		case sqltypes.KindDecimal:
			kind = sqltypes.KindDecimal
			decSum = decSum.Add(v.Dec)
		default:
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "SUM requires a numeric argument", nil)
		}
	}
	if !anySeen {
		return sqltypes.Null(kind), nil
	}
	switch kind {
	case sqltypes.KindFloat:
		return sqltypes.Float(fltSum + float64(intSum)), nil
	case sqltypes.KindDecimal:
		if intSum != 0 {
			decSum = decSum.Add(decimal.NewFromInt(intSum))
		}
		return sqltypes.Decimal(decSum), nil
	default:
		return sqltypes.BigInt(intSum), nil
	}
}

func avgValues(values []sqltypes.Value) (sqltypes.Value, error) {
	var count int64
	var sum decimal.Decimal
	isFloat := false
	var fsum float64
	for _, v := range values {
		if v.Null {
			continue
		}
		count++
		switch v.Kind {
		case sqltypes.KindInteger, sqltypes.KindBigInt:
			sum = sum.Add(decimal.NewFromInt(v.Int))
		case sqltypes.KindDecimal:
			sum = sum.Add(v.Dec)
		case sqltypes.KindFloat:
			isFloat = true
			fsum += v.Float
		default:
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "AVG requires a numeric argument", nil)
		}
	}
	if count == 0 {
		if isFloat {
			return sqltypes.Null(sqltypes.KindFloat), nil
		}
		return sqltypes.Null(sqltypes.KindDecimal), nil
	}
	if isFloat {
		return sqltypes.Float(fsum / float64(count)), nil
	}
	return sqltypes.Decimal(sum.Div(decimal.NewFromInt(count))), nil
}

func extremeValues(values []sqltypes.Value, greatest bool) (sqltypes.Value, error) {
	var best *sqltypes.Value
	for i := range values {
		v := values[i]
		if v.Null {
			continue
		}
		if best == nil {
			best = &values[i]
			continue
		}
		cmp, err := eval.Compare(v, *best)
		if err != nil {
			return sqltypes.Value{}, err
		}
		if (greatest && cmp > 0) || (!greatest && cmp < 0) {
			best = &values[i]
		}
	}
	if best == nil {
		return sqltypes.Null(valuesKind(values)), nil
	}
	return *best, nil
}

func valuesKind(values []sqltypes.Value) sqltypes.Kind {
	if len(values) == 0 {
		return sqltypes.KindNull
	}
	return values[0].Kind
}

// compareSortValues wraps eval.Compare with per-operand nullness flags so
// ORDER BY and window ORDER BY evaluation can implement NULLS FIRST/LAST
// without special-casing Null inside the comparator itself.
func compareSortValues(a, b sqltypes.Value) (cmp int, aNull, bNull bool) {
	if a.Null || b.Null {
		return 0, a.Null, b.Null
	}
	c, err := eval.Compare(a, b)
	if err != nil {
		return 0, false, false
	}
	return c, false, false
}
