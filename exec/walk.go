package exec

import (
	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/eval"
)

// collectFuncs walks expr looking for *ast.FuncExpr nodes matching pred,
// appending them to out. It does not descend into a nested Subquery or
// ExistsExpr: aggregates and window calls belong to whichever query they
// textually appear in, never to an enclosing one.
func collectFuncs(expr ast.Expr, pred func(*ast.FuncExpr) bool, out *[]*ast.FuncExpr) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.FuncExpr:
		if pred(e) {
			*out = append(*out, e)
		}
		for _, a := range e.Args {
			collectFuncs(a, pred, out)
		}
		if e.Filter != nil {
			collectFuncs(e.Filter, pred, out)
		}
	case *ast.BinaryExpr:
		collectFuncs(e.Left, pred, out)
		collectFuncs(e.Right, pred, out)
	case *ast.UnaryExpr:
		collectFuncs(e.Operand, pred, out)
	case *ast.ParenExpr:
		collectFuncs(e.Expr, pred, out)
	case *ast.CastExpr:
		collectFuncs(e.Expr, pred, out)
	case *ast.CaseExpr:
		collectFuncs(e.Operand, pred, out)
		for _, w := range e.Whens {
			collectFuncs(w.Cond, pred, out)
			collectFuncs(w.Result, pred, out)
		}
		collectFuncs(e.Else, pred, out)
	case *ast.InExpr:
		collectFuncs(e.Expr, pred, out)
		for _, v := range e.Values {
			collectFuncs(v, pred, out)
		}
	case *ast.BetweenExpr:
		collectFuncs(e.Expr, pred, out)
		collectFuncs(e.Low, pred, out)
		collectFuncs(e.High, pred, out)
	case *ast.LikeExpr:
		collectFuncs(e.Expr, pred, out)
		collectFuncs(e.Pattern, pred, out)
		collectFuncs(e.Escape, pred, out)
	case *ast.IsExpr:
		collectFuncs(e.Expr, pred, out)
	case *ast.TrimExpr:
		collectFuncs(e.TrimChar, pred, out)
		collectFuncs(e.Expr, pred, out)
	case *ast.SubstringExpr:
		collectFuncs(e.Expr, pred, out)
		collectFuncs(e.From, pred, out)
		collectFuncs(e.For, pred, out)
	case *ast.PositionExpr:
		collectFuncs(e.Needle, pred, out)
		collectFuncs(e.Haystack, pred, out)
	case *ast.CollateExpr:
		collectFuncs(e.Expr, pred, out)
	case *ast.ExtractExpr:
		collectFuncs(e.Source, pred, out)
	case *ast.ArrayExpr:
		for _, el := range e.Elements {
			collectFuncs(el, pred, out)
		}
	case *ast.SubscriptExpr:
		collectFuncs(e.Expr, pred, out)
		collectFuncs(e.Index, pred, out)
	case *ast.IntervalExpr:
		collectFuncs(e.Value, pred, out)
	}
}

func isAggregateCall(f *ast.FuncExpr) bool { return f.Over == nil && eval.IsAggregateName(f.Name) }
func isWindowCall(f *ast.FuncExpr) bool     { return f.Over != nil }

func collectFromItems(items []ast.SelectExpr, pred func(*ast.FuncExpr) bool) []*ast.FuncExpr {
	var out []*ast.FuncExpr
	for _, it := range items {
		if ae, ok := it.(*ast.AliasedExpr); ok {
			collectFuncs(ae.Expr, pred, &out)
		}
	}
	return out
}

func collectFromExpr(e ast.Expr, pred func(*ast.FuncExpr) bool) []*ast.FuncExpr {
	var out []*ast.FuncExpr
	collectFuncs(e, pred, &out)
	return out
}

func collectFromOrderBy(obs []*ast.OrderByExpr, pred func(*ast.FuncExpr) bool) []*ast.FuncExpr {
	var out []*ast.FuncExpr
	for _, ob := range obs {
		collectFuncs(ob.Expr, pred, &out)
	}
	return out
}
