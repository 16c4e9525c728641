package exec

import (
	"sort"
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/eval"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// windowValues computes one window function's per-row output for every
// row of rows, keyed by row index in the caller's slice: partition by
// PARTITION BY expression tuple, order within partition per the window's
// ORDER BY, then assign ROW_NUMBER/RANK in that order.
func windowValues(qc *queryContext, schema Schema, rows []sqltypes.Row, f *ast.FuncExpr, outer *rowEnv) ([]sqltypes.Value, error) {
	name := strings.ToUpper(f.Name)
	spec := f.Over
	if spec == nil {
		return nil, flaterr.New(flaterr.ErrTypeFeature, name+" requires an OVER clause", nil)
	}

	partitions, err := partitionRows(qc, schema, rows, spec.PartitionBy, outer)
	if err != nil {
		return nil, err
	}

	out := make([]sqltypes.Value, len(rows))
	for _, part := range partitions {
		ordered, orderKeys, err := orderPartition(qc, schema, rows, part, spec.OrderBy, outer)
		if err != nil {
			return nil, err
		}
		switch name {
		case "ROW_NUMBER":
			for i, idx := range ordered {
				out[idx] = sqltypes.BigInt(int64(i + 1))
			}
		case "RANK":
			rank := 1
			for i, idx := range ordered {
				if i > 0 && !sameKeys(orderKeys[i-1], orderKeys[i]) {
					rank = i + 1
				}
				out[idx] = sqltypes.BigInt(int64(rank))
			}
		case "DENSE_RANK":
			rank := 1
			for i, idx := range ordered {
				if i > 0 && !sameKeys(orderKeys[i-1], orderKeys[i]) {
					rank++
				}
				out[idx] = sqltypes.BigInt(int64(rank))
			}
		default:
			return nil, flaterr.New(flaterr.ErrTypeFeature, "unsupported window function "+name, nil)
		}
	}
	return out, nil
}

// partitionRows groups row indices by their PARTITION BY tuple, preserving
// first-seen partition order; an empty PARTITION BY puts every row in one.
func partitionRows(qc *queryContext, schema Schema, rows []sqltypes.Row, partitionBy []ast.Expr, outer *rowEnv) ([][]int, error) {
	if len(partitionBy) == 0 {
		idx := make([]int, len(rows))
		for i := range rows {
			idx[i] = i
		}
		return [][]int{idx}, nil
	}
	index := make(map[string]int)
	var parts [][]int
	for i, row := range rows {
		env := &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
		var sb strings.Builder
		for _, pe := range partitionBy {
			v, err := eval.Eval(pe, env)
			if err != nil {
				return nil, err
			}
			sb.WriteString(v.Key())
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		pi, ok := index[key]
		if !ok {
			pi = len(parts)
			index[key] = pi
			parts = append(parts, nil)
		}
		parts[pi] = append(parts[pi], i)
	}
	return parts, nil
}

// orderPartition returns part's row indices ordered per orderBy (stable
// on ties) plus the sort-key tuple used for each position, so RANK can
// detect tie groups without re-evaluating expressions.
func orderPartition(qc *queryContext, schema Schema, rows []sqltypes.Row, part []int, orderBy []*ast.OrderByExpr, outer *rowEnv) ([]int, [][]sqltypes.Value, error) {
	ordered := make([]int, len(part))
	copy(ordered, part)
	keys := make([][]sqltypes.Value, len(part))
	for i, idx := range part {
		k, err := orderKeyFor(qc, schema, rows[idx], orderBy, outer)
		if err != nil {
			return nil, nil, err
		}
		keys[i] = k
	}
	if len(orderBy) == 0 {
		return ordered, keys, nil
	}

	posOf := make(map[int]int, len(part))
	for i, idx := range part {
		posOf[idx] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		ka := keys[posOf[ordered[a]]]
		kb := keys[posOf[ordered[b]]]
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
	sortedKeys := make([][]sqltypes.Value, len(part))
	for i, idx := range ordered {
		sortedKeys[i] = keys[posOf[idx]]
	}
	return ordered, sortedKeys, nil
}

func orderKeyFor(qc *queryContext, schema Schema, row sqltypes.Row, orderBy []*ast.OrderByExpr, outer *rowEnv) ([]sqltypes.Value, error) {
	if len(orderBy) == 0 {
		return nil, nil
	}
	env := &rowEnv{qc: qc, schema: schema, row: row, outer: outer}
	out := make([]sqltypes.Value, len(orderBy))
	for i, ob := range orderBy {
		v, err := eval.Eval(ob.Expr, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func sameKeys(a, b []sqltypes.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equivalent(b[i]) {
			return false
		}
	}
	return true
}
