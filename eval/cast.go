package eval

import (
	"strconv"
	"strings"
	"time"

	"github.com/freeeve/machparse/ast"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// evalCast implements CAST(expr AS type), converting v to the target
// SQL type the way a client expects an explicit cast to behave. NULL
// casts to NULL of the target kind; otherwise an unparseable conversion
// is a TypeError rather than silently returning NULL.
func evalCast(e *ast.CastExpr, env Env) (sqltypes.Value, error) {
	v, err := Eval(e.Expr, env)
	if err != nil {
		return sqltypes.Value{}, err
	}
	name := strings.ToUpper(e.Type.Name)
	kind, err := castTargetKind(name)
	if err != nil {
		return sqltypes.Value{}, err
	}
	if v.Null {
		return sqltypes.Null(kind), nil
	}
	return castValue(v, kind)
}

// CastTargetKind exposes the CAST type-name resolution for callers
// outside the package (exec's projection type inference).
func CastTargetKind(name string) (sqltypes.Kind, error) {
	return castTargetKind(strings.ToUpper(name))
}

func castTargetKind(name string) (sqltypes.Kind, error) {
	switch name {
	case "INT", "INTEGER", "INT4", "SERIAL":
		return sqltypes.KindInteger, nil
	case "BIGINT", "INT8", "BIGSERIAL":
		return sqltypes.KindBigInt, nil
	case "FLOAT", "DOUBLE", "REAL", "FLOAT8", "DOUBLE PRECISION":
		return sqltypes.KindFloat, nil
	case "DECIMAL", "NUMERIC":
		return sqltypes.KindDecimal, nil
	case "BOOLEAN", "BOOL":
		return sqltypes.KindBoolean, nil
	case "TEXT", "VARCHAR", "STRING":
		return sqltypes.KindText, nil
	case "CHAR", "CHARACTER", "BPCHAR":
		return sqltypes.KindChar, nil
	case "DATE":
		return sqltypes.KindDate, nil
	case "TIME":
		return sqltypes.KindTime, nil
	case "TIMESTAMP", "DATETIME":
		return sqltypes.KindTimestamp, nil
	case "UUID":
		return sqltypes.KindUuid, nil
	case "JSON", "JSONB":
		return sqltypes.KindJson, nil
	default:
		return sqltypes.KindNull, flaterr.New(flaterr.ErrTypeFeature, "unsupported CAST target type "+name, nil)
	}
}

func castValue(v sqltypes.Value, kind sqltypes.Kind) (sqltypes.Value, error) {
	switch kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		i, ok := castToInt64(v)
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to "+kind.String(), nil)
		}
		if kind == sqltypes.KindBigInt {
			return sqltypes.BigInt(i), nil
		}
		return sqltypes.Integer(i), nil
	case sqltypes.KindFloat:
		f, ok := castToFloat64(v)
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to FLOAT", nil)
		}
		return sqltypes.Float(f), nil
	case sqltypes.KindDecimal:
		d, ok := castToDecimal(v)
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to DECIMAL", nil)
		}
		return sqltypes.Decimal(d), nil
	case sqltypes.KindBoolean:
		b, ok := castToBool(v)
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to BOOLEAN", nil)
		}
		return sqltypes.Boolean(b), nil
	case sqltypes.KindText:
		return sqltypes.Text(v.AsText()), nil
	case sqltypes.KindChar:
		return sqltypes.Char(v.AsText()), nil
	case sqltypes.KindJson:
		return sqltypes.Json(v.AsText()), nil
	case sqltypes.KindDate:
		t, ok := castToTime(v, "2006-01-02")
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to DATE", nil)
		}
		return sqltypes.Date(t), nil
	case sqltypes.KindTime:
		t, ok := castToTime(v, "15:04:05")
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to TIME", nil)
		}
		return sqltypes.Time(t), nil
	case sqltypes.KindTimestamp:
		t, ok := castToTime(v, "2006-01-02 15:04:05")
		if !ok {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to TIMESTAMP", nil)
		}
		return sqltypes.Timestamp(t), nil
	case sqltypes.KindUuid:
		u, err := uuid.Parse(v.AsText())
		if err != nil {
			return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeType, "cannot cast "+v.Kind.String()+" to UUID", err)
		}
		return sqltypes.Uuid(u), nil
	default:
		return sqltypes.Value{}, flaterr.New(flaterr.ErrTypeFeature, "unsupported CAST target", nil)
	}
}

func castToInt64(v sqltypes.Value) (int64, bool) {
	switch v.Kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		return v.Int, true
	case sqltypes.KindFloat:
		return int64(v.Float), true
	case sqltypes.KindDecimal:
		return v.Dec.IntPart(), true
	case sqltypes.KindBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case sqltypes.KindText, sqltypes.KindChar:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func castToFloat64(v sqltypes.Value) (float64, bool) {
	if isNumericKind(v.Kind) {
		f, ok := asFloat64(v)
		return f, ok
	}
	if isTextKind(v.Kind) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return f, err == nil
	}
	return 0, false
}

func castToDecimal(v sqltypes.Value) (decimal.Decimal, bool) {
	if isNumericKind(v.Kind) {
		d, ok := asDecimal(v)
		return d, ok
	}
	if isTextKind(v.Kind) {
		d, err := decimal.NewFromString(strings.TrimSpace(v.Str))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func castToBool(v sqltypes.Value) (bool, bool) {
	switch v.Kind {
	case sqltypes.KindBoolean:
		return v.Bool, true
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		return v.Int != 0, true
	case sqltypes.KindText, sqltypes.KindChar:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "t", "true", "1", "yes":
			return true, true
		case "f", "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

func castToTime(v sqltypes.Value, layout string) (time.Time, bool) {
	if isTimeKind(v.Kind) {
		return v.Time, true
	}
	if isTextKind(v.Kind) {
		t, err := time.Parse(layout, strings.TrimSpace(v.Str))
		if err == nil {
			return t, true
		}
		for _, l := range []string{"2006-01-02 15:04:05.999999", "2006-01-02T15:04:05", time.RFC3339} {
			if t, err := time.Parse(l, strings.TrimSpace(v.Str)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
