package eval

import (
	"strconv"

	"github.com/freeeve/machparse/ast"
	"github.com/freeeve/machparse/token"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// Eval reduces expr to a single sqltypes.Value against env, implementing
// SQL three-valued logic throughout: any operand that IsNull propagates
// to a Null result except where the operator is specifically defined to
// short-circuit it (AND/OR with a determining operand, IS [NOT] NULL).
func Eval(expr ast.Expr, env Env) (sqltypes.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(e)
	case *ast.ColName:
		return env.Column(e.Table(), e.Name())
	case *ast.ParenExpr:
		return Eval(e.Expr, env)
	case *ast.UnaryExpr:
		return evalUnary(e, env)
	case *ast.BinaryExpr:
		return evalBinary(e, env)
	case *ast.IsExpr:
		return evalIs(e, env)
	case *ast.BetweenExpr:
		return evalBetween(e, env)
	case *ast.InExpr:
		return evalIn(e, env)
	case *ast.LikeExpr:
		return evalLike(e, env)
	case *ast.CaseExpr:
		return evalCase(e, env)
	case *ast.CastExpr:
		return evalCast(e, env)
	case *ast.ExistsExpr:
		return evalExists(e, env)
	case *ast.Subquery:
		return evalScalarSubquery(e, env)
	case *ast.FuncExpr:
		return evalFunc(e, env)
	case *ast.ExtractExpr:
		return evalExtract(e, env)
	case *ast.TrimExpr:
		return evalTrim(e, env)
	case *ast.SubstringExpr:
		return evalSubstring(e, env)
	case *ast.PositionExpr:
		return evalPosition(e, env)
	case *ast.Param:
		return env.Param(e)
	case *ast.StarExpr:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "* is only valid as a function argument or select item", nil)
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported expression", nil)
	}
}

func evalLiteral(l *ast.Literal) (sqltypes.Value, error) {
	switch l.Type {
	case ast.LiteralNull:
		return sqltypes.Null(sqltypes.KindNull), nil
	case ast.LiteralInt:
		n, err := strconv.ParseInt(l.Value, 10, 64)
		if err != nil {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeParse, "invalid integer literal "+l.Value, err)
		}
		if n >= -2147483648 && n <= 2147483647 {
			return sqltypes.Integer(n), nil
		}
		return sqltypes.BigInt(n), nil
	case ast.LiteralFloat:
		f, err := strconv.ParseFloat(l.Value, 64)
		if err != nil {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeParse, "invalid float literal "+l.Value, err)
		}
		return sqltypes.Float(f), nil
	case ast.LiteralString:
		return sqltypes.Text(l.Value), nil
	case ast.LiteralBool:
		return sqltypes.Boolean(l.Value == "true" || l.Value == "TRUE" || l.Value == "1"), nil
	case ast.LiteralBlob:
		return sqltypes.Text(l.Value), nil
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported literal kind", nil)
	}
}

func evalUnary(e *ast.UnaryExpr, env Env) (sqltypes.Value, error) {
	v, err := Eval(e.Operand, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	switch e.Op {
	case token.NOT:
		return not3(v), nil
	case token.MINUS:
		if v.Null {
			return v, nil
		}
		return negate(v)
	case token.PLUS:
		return v, nil
	case token.BITNOT:
		if v.Null {
			return v, nil
		}
		i, ok := asInt64(v)
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "~ requires an integer operand", nil)
		}
		return sqltypes.Integer(^i), nil
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported unary operator "+e.Op.String(), nil)
	}
}

func evalBinary(e *ast.BinaryExpr, env Env) (sqltypes.Value, error) {
	switch e.Op {
	case token.AND:
		return evalAnd(e, env)
	case token.OR:
		return evalOr(e, env)
	}

	left, err := Eval(e.Left, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	right, err := Eval(e.Right, env)
	if err != nil {
		return sqltypes.Value{}, err
	}

	switch e.Op {
	case token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE:
		return compare3(e.Op, left, right)
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT:
		if left.Null || right.Null {
			if left.Kind == sqltypes.KindDate || right.Kind == sqltypes.KindDate {
				return sqltypes.Null(sqltypes.KindDate), nil
			}
			return sqltypes.Null(resultNumericKind(left, right)), nil
		}
		if dv, handled, err := dateArith(e.Op, left, right); handled || err != nil {
			return dv, err
		}
		return arith(e.Op, left, right)
	case token.CONCAT:
		if left.Null || right.Null {
			return sqltypes.Null(sqltypes.KindText), nil
		}
		return sqltypes.Text(left.AsText() + right.AsText()), nil
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported operator "+e.Op.String(), nil)
	}
}

// evalAnd implements Kleene AND: FALSE is absorbing regardless of the
// other operand's nullity.
func evalAnd(e *ast.BinaryExpr, env Env) (sqltypes.Value, error) {
	left, err := Eval(e.Left, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if !left.Null && !left.Bool {
		return sqltypes.Boolean(false), nil
	}
	right, err := Eval(e.Right, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if !right.Null && !right.Bool {
		return sqltypes.Boolean(false), nil
	}
	if left.Null || right.Null {
		return sqltypes.Null(sqltypes.KindBoolean), nil
	}
	return sqltypes.Boolean(true), nil
}

// evalOr implements Kleene OR: TRUE is absorbing regardless of the other
// operand's nullity.
func evalOr(e *ast.BinaryExpr, env Env) (sqltypes.Value, error) {
	left, err := Eval(e.Left, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if !left.Null && left.Bool {
		return sqltypes.Boolean(true), nil
	}
	right, err := Eval(e.Right, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if !right.Null && right.Bool {
		return sqltypes.Boolean(true), nil
	}
	if left.Null || right.Null {
		return sqltypes.Null(sqltypes.KindBoolean), nil
	}
	return sqltypes.Boolean(false), nil
}

func not3(v sqltypes.Value) sqltypes.Value {
	if v.Null {
		return sqltypes.Null(sqltypes.KindBoolean)
	}
	return sqltypes.Boolean(!v.Bool)
}

func evalIs(e *ast.IsExpr, env Env) (sqltypes.Value, error) {
	v, err := Eval(e.Expr, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	var result bool
	switch e.What {
	case ast.IsNull:
		result = v.Null
	case ast.IsTrue:
		result = !v.Null && v.Bool
	case ast.IsFalse:
		result = !v.Null && !v.Bool
	case ast.IsUnknown:
		result = v.Null
	}
	if e.Not {
		result = !result
	}
	return sqltypes.Boolean(result), nil
}

func evalBetween(e *ast.BetweenExpr, env Env) (sqltypes.Value, error) {
	v, err := Eval(e.Expr, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	low, err := Eval(e.Low, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	high, err := Eval(e.High, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	ge, err := compare3(token.GTE, v, low)
	if err != nil {
		return sqltypes.Value{}, err
	}
	le, err := compare3(token.LTE, v, high)
	if err != nil {
		return sqltypes.Value{}, err
	}
	var result sqltypes.Value
	if !ge.Null && !ge.Bool {
		result = sqltypes.Boolean(false)
	} else if !le.Null && !le.Bool {
		result = sqltypes.Boolean(false)
	} else if ge.Null || le.Null {
		result = sqltypes.Null(sqltypes.KindBoolean)
	} else {
		result = sqltypes.Boolean(true)
	}
	if e.Not {
		result = not3(result)
	}
	return result, nil
}

func evalIn(e *ast.InExpr, env Env) (sqltypes.Value, error) {
	v, err := Eval(e.Expr, env)
	if err != nil {
		return sqltypes.Value{}, err
	}

	var candidates []sqltypes.Value
	if e.Select != nil {
		res, err := env.RunSubquery(&ast.Subquery{Select: e.Select})
		if err != nil {
			return sqltypes.Value{}, err
		}
		for _, row := range res.Rows {
			if len(row) > 0 {
				candidates = append(candidates, row[0])
			}
		}
	} else {
		for _, ve := range e.Values {
			cv, err := Eval(ve, env)
			if err != nil {
				return sqltypes.Value{}, err
			}
			candidates = append(candidates, cv)
		}
	}

	result, err := in3(v, candidates)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if e.Not {
		result = not3(result)
	}
	return result, nil
}

// in3 implements three-valued IN: TRUE if any candidate equals v, NULL if
// no match was found but v or some candidate was NULL, FALSE otherwise
// (including the empty-candidate-list case — see SPEC_FULL.md FULL-5).
func in3(v sqltypes.Value, candidates []sqltypes.Value) (sqltypes.Value, error) {
	sawNull := v.Null
	for _, c := range candidates {
		eq, err := compare3(token.EQ, v, c)
		if err != nil {
			return sqltypes.Value{}, err
		}
		if eq.Null {
			sawNull = true
			continue
		}
		if eq.Bool {
			return sqltypes.Boolean(true), nil
		}
	}
	if sawNull {
		return sqltypes.Null(sqltypes.KindBoolean), nil
	}
	return sqltypes.Boolean(false), nil
}

func evalCase(e *ast.CaseExpr, env Env) (sqltypes.Value, error) {
	var operand *sqltypes.Value
	if e.Operand != nil {
		v, err := Eval(e.Operand, env)
		if err != nil {
			return sqltypes.Value{}, err
		}
		operand = &v
	}

	for _, when := range e.Whens {
		var matched bool
		if operand != nil {
			wv, err := Eval(when.Cond, env)
			if err != nil {
				return sqltypes.Value{}, err
			}
			eq, err := compare3(token.EQ, *operand, wv)
			if err != nil {
				return sqltypes.Value{}, err
			}
			matched = !eq.Null && eq.Bool
		} else {
			cond, err := Eval(when.Cond, env)
			if err != nil {
				return sqltypes.Value{}, err
			}
			matched = !cond.Null && cond.Bool
		}
		if matched {
			return Eval(when.Result, env)
		}
	}
	if e.Else != nil {
		return Eval(e.Else, env)
	}
	return sqltypes.Null(sqltypes.KindNull), nil
}

func evalExists(e *ast.ExistsExpr, env Env) (sqltypes.Value, error) {
	res, err := env.RunSubquery(e.Subquery)
	if err != nil {
		return sqltypes.Value{}, err
	}
	exists := len(res.Rows) > 0
	if e.Not {
		exists = !exists
	}
	return sqltypes.Boolean(exists), nil
}

func evalScalarSubquery(s *ast.Subquery, env Env) (sqltypes.Value, error) {
	res, err := env.RunSubquery(s)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if len(res.Rows) == 0 {
		return sqltypes.Null(sqltypes.KindNull), nil
	}
	if len(res.Rows) > 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "subquery used as an expression returned more than one row", nil)
	}
	row := res.Rows[0]
	if len(row) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "subquery used as an expression must return exactly one column", nil)
	}
	return row[0], nil
}
