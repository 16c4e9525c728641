package exec

import (
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/eval"
	"github.com/mstgnz/flatsql/sqltypes"
)

// projItem is one resolved select-list entry: either a StarExpr expansion
// (handled inline by expandItems) or a single expression with its output
// name.
type projItem struct {
	expr  ast.Expr
	alias string
}

// expandItems turns a SELECT list into a flat sequence of projItem,
// expanding `*` and `alias.*` against schema in FROM-resolution order.
func expandItems(items []ast.SelectExpr, schema Schema) ([]projItem, error) {
	var out []projItem
	for _, it := range items {
		switch e := it.(type) {
		case *ast.StarExpr:
			for _, c := range schema {
				if e.HasQualifier && !strings.EqualFold(c.Alias, e.TableName) {
					continue
				}
				out = append(out, projItem{expr: &ast.ColName{Parts: []string{c.Alias, c.Name}}, alias: c.Name})
			}
		case *ast.AliasedExpr:
			alias := e.Alias
			if alias == "" {
				alias = defaultAlias(e.Expr)
			}
			out = append(out, projItem{expr: e.Expr, alias: alias})
		}
	}
	return out, nil
}

// extractDistinctOn pulls the synthetic __DISTINCT_ON__(...) marker
// sqlparse's rewriteDistinctOn injects as the first select item back out
// into an expression list, returning the remaining real select items.
func extractDistinctOn(items []ast.SelectExpr) ([]ast.Expr, []ast.SelectExpr) {
	if len(items) == 0 {
		return nil, items
	}
	ae, ok := items[0].(*ast.AliasedExpr)
	if !ok {
		return nil, items
	}
	fn, ok := ae.Expr.(*ast.FuncExpr)
	if !ok || !strings.EqualFold(fn.Name, "__DISTINCT_ON__") {
		return nil, items
	}
	return fn.Args, items[1:]
}

func defaultAlias(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.ColName:
		return v.Name()
	case *ast.FuncExpr:
		return strings.ToLower(v.Name)
	default:
		return ""
	}
}

func buildOutputSchema(items []projItem, schema Schema) Schema {
	out := make(Schema, len(items))
	for i, it := range items {
		out[i] = ColRef{Name: it.alias, Type: inferType(it.expr, schema)}
	}
	return out
}

// inferType estimates an expression's declared SqlType for row-codec
// purposes. Column references and casts are exact; arithmetic and
// function results are a reasonable approximation rather than a full
// type-checker, since the codec only needs a wire-compatible tag.
func inferType(expr ast.Expr, schema Schema) sqltypes.SqlType {
	switch e := expr.(type) {
	case *ast.ColName:
		if idx, err := schema.Find(e.Table(), e.Name()); err == nil {
			return schema[idx].Type
		}
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	case *ast.Literal:
		switch e.Type {
		case ast.LiteralInt:
			return sqltypes.SqlType{Kind: sqltypes.KindInteger}
		case ast.LiteralFloat:
			return sqltypes.SqlType{Kind: sqltypes.KindFloat}
		case ast.LiteralBool:
			return sqltypes.SqlType{Kind: sqltypes.KindBoolean}
		case ast.LiteralNull:
			return sqltypes.SqlType{Kind: sqltypes.KindText}
		default:
			return sqltypes.SqlType{Kind: sqltypes.KindText}
		}
	case *ast.CastExpr:
		if k, err := eval.CastTargetKind(e.Type.Name); err == nil {
			return sqltypes.SqlType{Kind: k, Length: intOr(e.Type.Length), Precision: intOr(e.Type.Precision), Scale: intOr(e.Type.Scale)}
		}
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	case *ast.ParenExpr:
		return inferType(e.Expr, schema)
	case *ast.BinaryExpr:
		return inferBinaryType(e, schema)
	case *ast.UnaryExpr:
		return inferType(e.Operand, schema)
	case *ast.FuncExpr:
		return inferFuncType(e, schema)
	case *ast.CaseExpr:
		if len(e.Whens) > 0 {
			return inferType(e.Whens[0].Result, schema)
		}
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	case *ast.ExtractExpr:
		return sqltypes.SqlType{Kind: sqltypes.KindInteger}
	case *ast.Subquery:
		if len(e.Select.Columns) == 1 {
			if ae, ok := e.Select.Columns[0].(*ast.AliasedExpr); ok {
				return inferType(ae.Expr, nil)
			}
		}
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	default:
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	}
}

func intOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func inferBinaryType(e *ast.BinaryExpr, schema Schema) sqltypes.SqlType {
	lt := inferType(e.Left, schema)
	rt := inferType(e.Right, schema)
	if lt.Kind == sqltypes.KindDecimal || rt.Kind == sqltypes.KindDecimal {
		return sqltypes.SqlType{Kind: sqltypes.KindDecimal}
	}
	if lt.Kind == sqltypes.KindFloat || rt.Kind == sqltypes.KindFloat {
		return sqltypes.SqlType{Kind: sqltypes.KindFloat}
	}
	if lt.Numeric() && rt.Numeric() {
		return sqltypes.SqlType{Kind: sqltypes.KindInteger}
	}
	return sqltypes.SqlType{Kind: sqltypes.KindText}
}

func inferFuncType(f *ast.FuncExpr, schema Schema) sqltypes.SqlType {
	name := strings.ToUpper(f.Name)
	switch name {
	case "COUNT":
		return sqltypes.SqlType{Kind: sqltypes.KindBigInt}
	case "SUM":
		if len(f.Args) == 1 {
			at := inferType(f.Args[0], schema)
			if at.Kind == sqltypes.KindInteger || at.Kind == sqltypes.KindBigInt {
				return sqltypes.SqlType{Kind: sqltypes.KindBigInt}
			}
			return at
		}
		return sqltypes.SqlType{Kind: sqltypes.KindBigInt}
	case "AVG":
		return sqltypes.SqlType{Kind: sqltypes.KindDecimal}
	case "MIN", "MAX", "COALESCE", "NULLIF", "GREATEST", "LEAST":
		if len(f.Args) > 0 {
			return inferType(f.Args[0], schema)
		}
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	case "ROW_NUMBER", "RANK", "DENSE_RANK":
		return sqltypes.SqlType{Kind: sqltypes.KindBigInt}
	case "ABS", "ROUND", "CEIL", "CEILING", "FLOOR", "MOD":
		if len(f.Args) > 0 {
			return inferType(f.Args[0], schema)
		}
		return sqltypes.SqlType{Kind: sqltypes.KindFloat}
	case "NOW", "CURRENT_TIMESTAMP":
		return sqltypes.SqlType{Kind: sqltypes.KindTimestamp}
	case "CURRENT_DATE":
		return sqltypes.SqlType{Kind: sqltypes.KindDate}
	case "UPPER", "LOWER", "TRIM", "CONCAT", "LEFT", "RIGHT", "VERSION", "SESSIONVAR":
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	case "LENGTH":
		return sqltypes.SqlType{Kind: sqltypes.KindInteger}
	default:
		return sqltypes.SqlType{Kind: sqltypes.KindText}
	}
}
