package eval

import (
	"strings"
	"time"

	"github.com/freeeve/machparse/token"
	"github.com/shopspring/decimal"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

func isNumericKind(k sqltypes.Kind) bool {
	switch k {
	case sqltypes.KindInteger, sqltypes.KindBigInt, sqltypes.KindFloat, sqltypes.KindDecimal:
		return true
	default:
		return false
	}
}

func asInt64(v sqltypes.Value) (int64, bool) {
	switch v.Kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		return v.Int, true
	case sqltypes.KindFloat:
		return int64(v.Float), true
	case sqltypes.KindDecimal:
		return v.Dec.IntPart(), true
	default:
		return 0, false
	}
}

func asFloat64(v sqltypes.Value) (float64, bool) {
	switch v.Kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		return float64(v.Int), true
	case sqltypes.KindFloat:
		return v.Float, true
	case sqltypes.KindDecimal:
		f, _ := v.Dec.Float64()
		return f, true
	default:
		return 0, false
	}
}

func asDecimal(v sqltypes.Value) (decimal.Decimal, bool) {
	switch v.Kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		return decimal.NewFromInt(v.Int), true
	case sqltypes.KindFloat:
		return decimal.NewFromFloat(v.Float), true
	case sqltypes.KindDecimal:
		return v.Dec, true
	default:
		return decimal.Decimal{}, false
	}
}

// resultNumericKind picks the Kind a NULL arithmetic result should carry,
// following the same promotion rules as arith so the row codec still
// picks a sensible wire type tag for a NULL cell.
func resultNumericKind(a, b sqltypes.Value) sqltypes.Kind {
	if a.Kind == sqltypes.KindDecimal || b.Kind == sqltypes.KindDecimal {
		return sqltypes.KindDecimal
	}
	if a.Kind == sqltypes.KindFloat || b.Kind == sqltypes.KindFloat {
		return sqltypes.KindFloat
	}
	if a.Kind == sqltypes.KindBigInt || b.Kind == sqltypes.KindBigInt {
		return sqltypes.KindBigInt
	}
	return sqltypes.KindInteger
}

// arith evaluates +, -, *, /, % between two non-NULL numeric values,
// promoting Integer -> BigInt -> Decimal/Float the same way
// resultNumericKind does. Division between two integral types truncates
// (SPEC_FULL.md FULL-5, open question #2): Go's native int64 `/`.
func arith(op token.Token, a, b sqltypes.Value) (sqltypes.Value, error) {
	if !isNumericKind(a.Kind) || !isNumericKind(b.Kind) {
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "arithmetic requires numeric operands", nil)
	}

	if a.Kind == sqltypes.KindDecimal || b.Kind == sqltypes.KindDecimal {
		da, _ := asDecimal(a)
		db, _ := asDecimal(b)
		var r decimal.Decimal
		switch op {
		case token.PLUS:
			r = da.Add(db)
		case token.MINUS:
			r = da.Sub(db)
		case token.ASTERISK:
			r = da.Mul(db)
		case token.SLASH:
			if db.IsZero() {
				return sqltypes.Null(sqltypes.KindDecimal), nil
			}
			r = da.Div(db)
		case token.PERCENT:
			if db.IsZero() {
				return sqltypes.Null(sqltypes.KindDecimal), nil
			}
			r = da.Mod(db)
		}
		return sqltypes.Decimal(r), nil
	}

	if a.Kind == sqltypes.KindFloat || b.Kind == sqltypes.KindFloat {
		fa, _ := asFloat64(a)
		fb, _ := asFloat64(b)
		var r float64
		switch op {
		case token.PLUS:
			r = fa + fb
		case token.MINUS:
			r = fa - fb
		case token.ASTERISK:
			r = fa * fb
		case token.SLASH:
			if fb == 0 {
				return sqltypes.Null(sqltypes.KindFloat), nil
			}
			r = fa / fb
		case token.PERCENT:
			if fb == 0 {
				return sqltypes.Null(sqltypes.KindFloat), nil
			}
			r = float64(int64(fa) % int64(fb))
		}
		return sqltypes.Float(r), nil
	}

	ia, _ := asInt64(a)
	ib, _ := asInt64(b)
	var r int64
	switch op {
	case token.PLUS:
		r = ia + ib
	case token.MINUS:
		r = ia - ib
	case token.ASTERISK:
		r = ia * ib
	case token.SLASH:
		if ib == 0 {
			return sqltypes.Null(resultNumericKind(a, b)), nil
		}
		r = ia / ib // truncating integer division
	case token.PERCENT:
		if ib == 0 {
			return sqltypes.Null(resultNumericKind(a, b)), nil
		}
		r = ia % ib
	}
	if a.Kind == sqltypes.KindBigInt || b.Kind == sqltypes.KindBigInt {
		return sqltypes.BigInt(r), nil
	}
	return sqltypes.Integer(r), nil
}

func negate(v sqltypes.Value) (sqltypes.Value, error) {
	switch v.Kind {
	case sqltypes.KindInteger:
		return sqltypes.Integer(-v.Int), nil
	case sqltypes.KindBigInt:
		return sqltypes.BigInt(-v.Int), nil
	case sqltypes.KindFloat:
		return sqltypes.Float(-v.Float), nil
	case sqltypes.KindDecimal:
		return sqltypes.Decimal(v.Dec.Neg()), nil
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "unary - requires a numeric operand", nil)
	}
}

// compare3 implements three-valued comparison: NULL in, NULL out,
// regardless of operator. Cross-type numeric comparisons promote the
// same way arith does; text/char compare byte-wise; date/time/timestamp
// compare chronologically; booleans order false before true; UUIDs
// compare by their canonical text form.
func compare3(op token.Token, a, b sqltypes.Value) (sqltypes.Value, error) {
	if a.Null || b.Null {
		return sqltypes.Null(sqltypes.KindBoolean), nil
	}

	cmp, err := compareNonNull(a, b)
	if err != nil {
		return sqltypes.Value{}, err
	}

	var result bool
	switch op {
	case token.EQ:
		result = cmp == 0
	case token.NEQ:
		result = cmp != 0
	case token.LT:
		result = cmp < 0
	case token.GT:
		result = cmp > 0
	case token.LTE:
		result = cmp <= 0
	case token.GTE:
		result = cmp >= 0
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported comparison operator "+op.String(), nil)
	}
	return sqltypes.Boolean(result), nil
}

// Compare exposes the non-null ordering comparator for callers outside
// the package (exec's MIN/MAX aggregates and ORDER BY tuple sort).
func Compare(a, b sqltypes.Value) (int, error) {
	return compareNonNull(a, b)
}

func compareNonNull(a, b sqltypes.Value) (int, error) {
	switch {
	case isNumericKind(a.Kind) && isNumericKind(b.Kind):
		if a.Kind == sqltypes.KindDecimal || b.Kind == sqltypes.KindDecimal {
			da, _ := asDecimal(a)
			db, _ := asDecimal(b)
			return da.Cmp(db), nil
		}
		fa, _ := asFloat64(a)
		fb, _ := asFloat64(b)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	case isTextKind(a.Kind) && isTextKind(b.Kind):
		return strings.Compare(a.Str, b.Str), nil
	case isTimeKind(a.Kind) && isTimeKind(b.Kind):
		return compareTime(a.Time, b.Time), nil
	case a.Kind == sqltypes.KindBoolean && b.Kind == sqltypes.KindBoolean:
		if a.Bool == b.Bool {
			return 0, nil
		}
		if !a.Bool && b.Bool {
			return -1, nil
		}
		return 1, nil
	case a.Kind == sqltypes.KindUuid && b.Kind == sqltypes.KindUuid:
		return strings.Compare(a.UUID.String(), b.UUID.String()), nil
	default:
		return 0, flaterr.New(flaterr.ErrTypeType, "cannot compare "+a.Kind.String()+" with "+b.Kind.String(), nil)
	}
}

func isTextKind(k sqltypes.Kind) bool {
	return k == sqltypes.KindText || k == sqltypes.KindChar || k == sqltypes.KindJson
}

func isTimeKind(k sqltypes.Kind) bool {
	return k == sqltypes.KindDate || k == sqltypes.KindTime || k == sqltypes.KindTimestamp
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
