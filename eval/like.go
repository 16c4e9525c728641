package eval

import (
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/sqltypes"
)

func evalLike(e *ast.LikeExpr, env Env) (sqltypes.Value, error) {
	v, err := Eval(e.Expr, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	pattern, err := Eval(e.Pattern, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if v.Null || pattern.Null {
		return sqltypes.Null(sqltypes.KindBoolean), nil
	}

	subject := v.AsText()
	pat := pattern.AsText()
	if e.ILike {
		subject = strings.ToLower(subject)
		pat = strings.ToLower(pat)
	}

	matched := likeMatch(subject, pat)
	if e.Not {
		matched = !matched
	}
	return sqltypes.Boolean(matched), nil
}

// likeMatch implements SQL LIKE semantics: `%` matches any run of zero or
// more characters, `_` matches exactly one, everything else is literal.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	if p[0] == '%' {
		// Collapse consecutive % and try every split point.
		if likeMatchRunes(s, p[1:]) {
			return true
		}
		for i := range s {
			if likeMatchRunes(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	}
	if len(s) == 0 {
		return false
	}
	if p[0] == '_' || p[0] == s[0] {
		return likeMatchRunes(s[1:], p[1:])
	}
	return false
}
