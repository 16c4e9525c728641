package eval

import (
	"math"
	"strings"
	"time"

	"github.com/freeeve/machparse/ast"
	"github.com/freeeve/machparse/token"
	"github.com/shopspring/decimal"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

var aggregateNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// IsAggregateName reports whether name is one of the aggregate functions
// exec must extract from an expression tree before handing the remainder
// to Eval (Eval itself never computes an aggregate across rows).
func IsAggregateName(name string) bool {
	return aggregateNames[strings.ToUpper(name)]
}

func evalFunc(e *ast.FuncExpr, env Env) (sqltypes.Value, error) {
	name := strings.ToUpper(e.Name)
	if e.Over != nil {
		return env.Window(e)
	}
	if IsAggregateName(name) {
		return env.Aggregate(e)
	}

	args := make([]sqltypes.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := Eval(a, env)
		if err != nil {
			return sqltypes.Value{}, err
		}
		args = append(args, v)
	}

	switch name {
	case "UPPER":
		return textFn(args, strings.ToUpper)
	case "LOWER":
		return textFn(args, strings.ToLower)
	case "LENGTH", "CHAR_LENGTH", "CHARACTER_LENGTH":
		return lengthFn(args)
	case "CONCAT":
		return concatFn(args)
	case "COALESCE":
		return coalesceFn(args)
	case "NULLIF":
		return nullIfFn(args)
	case "ABS":
		return absFn(args)
	case "ROUND":
		return roundFn(args)
	case "CEIL", "CEILING":
		return ceilFn(args)
	case "FLOOR":
		return floorFn(args)
	case "GREATEST":
		return extremeFn(args, true)
	case "LEAST":
		return extremeFn(args, false)
	case "NOW", "CURRENT_TIMESTAMP", "LOCALTIMESTAMP":
		return sqltypes.Timestamp(time.Now()), nil
	case "CURRENT_DATE":
		return sqltypes.Date(time.Now()), nil
	case "CURRENT_TIME", "LOCALTIME":
		return sqltypes.Time(time.Now()), nil
	case "LEFT":
		return leftRightFn(args, true)
	case "RIGHT":
		return leftRightFn(args, false)
	case "MOD":
		return modFn(args)
	case "ZEROIFNULL":
		return zeroIfNullFn(args)
	case "NULLIFZERO":
		return nullIfZeroFn(args)
	case "ADD_MONTHS":
		return addMonthsFn(args)
	case "LAST_DAY":
		return lastDayFn(args)
	case "DATE_PART":
		return datePartFn(args)
	case "VERSION":
		return sqltypes.Text(sessionVariable("version")), nil
	case "SESSIONVAR":
		return sessionVarFn(args)
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported function "+e.Name, nil)
	}
}

// leftRightFn implements LEFT(s, n)/RIGHT(s, n): the first/last n
// characters of s, rune-aware. n beyond the string length returns the
// whole string, matching mainstream driver expectations.
func leftRightFn(args []sqltypes.Value, left bool) (sqltypes.Value, error) {
	if len(args) != 2 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "LEFT/RIGHT expect exactly two arguments", nil)
	}
	if args[0].Null || args[1].Null {
		return sqltypes.Null(sqltypes.KindText), nil
	}
	runes := []rune(args[0].AsText())
	n := int(args[1].Int)
	if n < 0 {
		n = 0
	}
	if n > len(runes) {
		n = len(runes)
	}
	if left {
		return sqltypes.Text(string(runes[:n])), nil
	}
	return sqltypes.Text(string(runes[len(runes)-n:])), nil
}

func modFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 2 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "MOD expects exactly two arguments", nil)
	}
	if args[0].Null || args[1].Null {
		return sqltypes.Null(resultNumericKind(args[0], args[1])), nil
	}
	return arith(token.PERCENT, args[0], args[1])
}

func zeroIfNullFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "ZEROIFNULL expects exactly one argument", nil)
	}
	if !args[0].Null {
		return args[0], nil
	}
	switch args[0].Kind {
	case sqltypes.KindDecimal:
		return sqltypes.Decimal(decimal.Zero), nil
	case sqltypes.KindFloat:
		return sqltypes.Float(0), nil
	case sqltypes.KindBigInt:
		return sqltypes.BigInt(0), nil
	default:
		return sqltypes.Integer(0), nil
	}
}

func nullIfZeroFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "NULLIFZERO expects exactly one argument", nil)
	}
	v := args[0]
	if v.Null {
		return v, nil
	}
	switch v.Kind {
	case sqltypes.KindDecimal:
		if v.Dec.IsZero() {
			return sqltypes.Null(v.Kind), nil
		}
	case sqltypes.KindFloat:
		if v.Float == 0 {
			return sqltypes.Null(v.Kind), nil
		}
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		if v.Int == 0 {
			return sqltypes.Null(v.Kind), nil
		}
	}
	return v, nil
}

func addMonthsFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 2 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "ADD_MONTHS expects exactly two arguments", nil)
	}
	if args[0].Null || args[1].Null {
		return sqltypes.Null(sqltypes.KindDate), nil
	}
	if !isTimeKind(args[0].Kind) {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "ADD_MONTHS requires a date argument", nil)
	}
	n, ok := asInt64(args[1])
	if !ok {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "ADD_MONTHS requires an integer month count", nil)
	}
	return sqltypes.Date(addMonths(args[0].Time, n)), nil
}

func lastDayFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "LAST_DAY expects exactly one argument", nil)
	}
	if args[0].Null {
		return sqltypes.Null(sqltypes.KindDate), nil
	}
	if !isTimeKind(args[0].Kind) {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "LAST_DAY requires a date argument", nil)
	}
	return sqltypes.Date(lastDay(args[0].Time)), nil
}

// datePartFn implements DATE_PART('field', source), spec.md's EXTRACT
// alias in function-call form: the field name arrives as a string
// literal rather than an identifier.
func datePartFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 2 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "DATE_PART expects exactly two arguments", nil)
	}
	if args[0].Null {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "DATE_PART field name must not be NULL", nil)
	}
	return extractField(args[0].AsText(), args[1])
}

// sessionVarFn backs the SESSIONVAR(name) rewrite sqlparse substitutes
// for bare @@name references (machparse has no session-variable
// grammar of its own) — see SPEC_FULL.md FULL-4.
func sessionVarFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "SESSIONVAR expects exactly one argument", nil)
	}
	return sqltypes.Text(sessionVariable(args[0].AsText())), nil
}

// sessionVariables is the static probe table real client drivers and
// ORMs query during connection setup (`SELECT @@version`, `SET NAMES
// utf8mb4`'s character_set_client companion reads, and so on).
var sessionVariables = map[string]string{
	"version":              "8.0.0-flatsql",
	"version_comment":      "flatsql in-memory SQL engine",
	"character_set_client": "utf8mb4",
	"character_set_server": "utf8mb4",
	"collation_connection": "utf8mb4_general_ci",
	"sql_mode":             "",
	"autocommit":           "1",
	"tx_isolation":         "REPEATABLE-READ",
}

func sessionVariable(name string) string {
	if v, ok := sessionVariables[strings.ToLower(name)]; ok {
		return v
	}
	return ""
}

func textFn(args []sqltypes.Value, f func(string) string) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "function expects exactly one argument", nil)
	}
	if args[0].Null {
		return sqltypes.Null(sqltypes.KindText), nil
	}
	return sqltypes.Text(f(args[0].AsText())), nil
}

func lengthFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "LENGTH expects exactly one argument", nil)
	}
	if args[0].Null {
		return sqltypes.Null(sqltypes.KindInteger), nil
	}
	return sqltypes.Integer(int64(len([]rune(args[0].AsText())))), nil
}

func concatFn(args []sqltypes.Value) (sqltypes.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		if a.Null {
			continue // CONCAT treats NULL as empty string, matching MySQL-family behavior.
		}
		sb.WriteString(a.AsText())
	}
	return sqltypes.Text(sb.String()), nil
}

func coalesceFn(args []sqltypes.Value) (sqltypes.Value, error) {
	for _, a := range args {
		if !a.Null {
			return a, nil
		}
	}
	if len(args) > 0 {
		return sqltypes.Null(args[0].Kind), nil
	}
	return sqltypes.Null(sqltypes.KindNull), nil
}

func nullIfFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 2 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "NULLIF expects exactly two arguments", nil)
	}
	eq, err := compare3FromValues(args[0], args[1])
	if err != nil {
		return sqltypes.Value{}, err
	}
	if !eq.Null && eq.Bool {
		return sqltypes.Null(args[0].Kind), nil
	}
	return args[0], nil
}

func compare3FromValues(a, b sqltypes.Value) (sqltypes.Value, error) {
	if a.Null || b.Null {
		return sqltypes.Null(sqltypes.KindBoolean), nil
	}
	cmp, err := compareNonNull(a, b)
	if err != nil {
		return sqltypes.Value{}, err
	}
	return sqltypes.Boolean(cmp == 0), nil
}

func absFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "ABS expects exactly one argument", nil)
	}
	v := args[0]
	if v.Null {
		return sqltypes.Null(v.Kind), nil
	}
	switch v.Kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		n := v.Int
		if n < 0 {
			n = -n
		}
		if v.Kind == sqltypes.KindBigInt {
			return sqltypes.BigInt(n), nil
		}
		return sqltypes.Integer(n), nil
	case sqltypes.KindFloat:
		return sqltypes.Float(math.Abs(v.Float)), nil
	case sqltypes.KindDecimal:
		return sqltypes.Decimal(v.Dec.Abs()), nil
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "ABS requires a numeric argument", nil)
	}
}

func roundFn(args []sqltypes.Value) (sqltypes.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "ROUND expects one or two arguments", nil)
	}
	if args[0].Null {
		return sqltypes.Null(args[0].Kind), nil
	}
	places := int32(0)
	if len(args) == 2 && !args[1].Null {
		places = int32(args[1].Int)
	}
	if args[0].Kind == sqltypes.KindDecimal {
		return sqltypes.Decimal(args[0].Dec.Round(places)), nil
	}
	f, ok := asFloat64(args[0])
	if !ok {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "ROUND requires a numeric argument", nil)
	}
	return sqltypes.Decimal(decimal.NewFromFloat(f).Round(places)), nil
}

func ceilFn(args []sqltypes.Value) (sqltypes.Value, error) {
	return roundingFn(args, math.Ceil)
}

func floorFn(args []sqltypes.Value) (sqltypes.Value, error) {
	return roundingFn(args, math.Floor)
}

func roundingFn(args []sqltypes.Value, f func(float64) float64) (sqltypes.Value, error) {
	if len(args) != 1 {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "function expects exactly one argument", nil)
	}
	if args[0].Null {
		return sqltypes.Null(sqltypes.KindBigInt), nil
	}
	fl, ok := asFloat64(args[0])
	if !ok {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "function requires a numeric argument", nil)
	}
	return sqltypes.BigInt(int64(f(fl))), nil
}

func extremeFn(args []sqltypes.Value, greatest bool) (sqltypes.Value, error) {
	var best *sqltypes.Value
	for i := range args {
		if args[i].Null {
			return sqltypes.Null(args[i].Kind), nil
		}
		if best == nil {
			best = &args[i]
			continue
		}
		cmp, err := compareNonNull(args[i], *best)
		if err != nil {
			return sqltypes.Value{}, err
		}
		if (greatest && cmp > 0) || (!greatest && cmp < 0) {
			best = &args[i]
		}
	}
	if best == nil {
		return sqltypes.Null(sqltypes.KindNull), nil
	}
	return *best, nil
}
