package docload

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mstgnz/flatsql/sqltypes"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// convertValue converts a raw YAML scalar (string/int/float64/bool/nil,
// or nested map/slice for JSON columns) into a sqltypes.Value of the
// given declared type. A mismatch is a ConstraintError at load time per
// spec.md §7 — this engine never coerces types at query time beyond
// what eval's CAST does explicitly.
func convertValue(raw interface{}, typ sqltypes.SqlType) (sqltypes.Value, error) {
	if raw == nil {
		return sqltypes.Null(typ.Kind), nil
	}

	switch typ.Kind {
	case sqltypes.KindInteger, sqltypes.KindBigInt:
		i, err := toInt64(raw)
		if err != nil {
			return sqltypes.Value{}, err
		}
		if typ.Kind == sqltypes.KindInteger {
			return sqltypes.Integer(i), nil
		}
		return sqltypes.BigInt(i), nil

	case sqltypes.KindFloat:
		f, err := toFloat64(raw)
		if err != nil {
			return sqltypes.Value{}, err
		}
		return sqltypes.Float(f), nil

	case sqltypes.KindDecimal:
		d, err := toDecimal(raw)
		if err != nil {
			return sqltypes.Value{}, err
		}
		return sqltypes.Decimal(d), nil

	case sqltypes.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return sqltypes.Value{}, fmt.Errorf("expected boolean, got %T", raw)
		}
		return sqltypes.Boolean(b), nil

	case sqltypes.KindText:
		s, ok := raw.(string)
		if !ok {
			return sqltypes.Value{}, fmt.Errorf("expected text, got %T", raw)
		}
		return sqltypes.Text(s), nil

	case sqltypes.KindChar:
		s, ok := raw.(string)
		if !ok {
			return sqltypes.Value{}, fmt.Errorf("expected char, got %T", raw)
		}
		return sqltypes.Char(s), nil

	case sqltypes.KindDate:
		t, err := parseTimeLike(raw, "2006-01-02")
		if err != nil {
			return sqltypes.Value{}, err
		}
		return sqltypes.Date(t), nil

	case sqltypes.KindTime:
		t, err := parseTimeLike(raw, "15:04:05")
		if err != nil {
			return sqltypes.Value{}, err
		}
		return sqltypes.Time(t), nil

	case sqltypes.KindTimestamp:
		t, err := parseTimeLike(raw, "")
		if err != nil {
			return sqltypes.Value{}, err
		}
		return sqltypes.Timestamp(t), nil

	case sqltypes.KindUuid:
		s, ok := raw.(string)
		if !ok {
			return sqltypes.Value{}, fmt.Errorf("expected uuid string, got %T", raw)
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return sqltypes.Value{}, fmt.Errorf("invalid uuid %q: %w", s, err)
		}
		return sqltypes.Uuid(u), nil

	case sqltypes.KindJson:
		if s, ok := raw.(string); ok {
			return sqltypes.Json(s), nil
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return sqltypes.Value{}, fmt.Errorf("encoding json column: %w", err)
		}
		return sqltypes.Json(string(b)), nil

	default:
		return sqltypes.Value{}, fmt.Errorf("unsupported column kind %v", typ.Kind)
	}
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func toFloat64(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", raw)
	}
}

func toDecimal(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("expected decimal, got %T", raw)
	}
}

func parseTimeLike(raw interface{}, preferredLayout string) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		if t, ok := raw.(time.Time); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("expected date/time string, got %T", raw)
	}
	if preferredLayout != "" {
		if t, err := time.Parse(preferredLayout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
