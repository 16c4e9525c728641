// Package sqltypes defines the value and schema model every other package
// in flatsql builds on: the scalar Value union, the declared SqlType a
// column carries, and the Column/Table/Database/Row shapes the in-memory
// store publishes as one immutable snapshot.
package sqltypes

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the tag of a Value/SqlType union.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindBigInt
	KindFloat
	KindDecimal
	KindBoolean
	KindText
	KindChar
	KindDate
	KindTime
	KindTimestamp
	KindUuid
	KindJson
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindBigInt:
		return "BIGINT"
	case KindFloat:
		return "FLOAT"
	case KindDecimal:
		return "DECIMAL"
	case KindBoolean:
		return "BOOLEAN"
	case KindText:
		return "TEXT"
	case KindChar:
		return "CHAR"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindUuid:
		return "UUID"
	case KindJson:
		return "JSON"
	default:
		return "UNKNOWN"
	}
}

// SqlType is a column's declared type: Kind plus the parameters the
// document's column-definition strings carry (Char(n), Decimal(p,s)).
type SqlType struct {
	Kind      Kind
	Length    int // Char(n); 0 = unspecified
	Precision int // Decimal(p,s)
	Scale     int
}

func (t SqlType) String() string {
	switch t.Kind {
	case KindChar:
		if t.Length > 0 {
			return fmt.Sprintf("CHAR(%d)", t.Length)
		}
		return "CHAR"
	case KindDecimal:
		if t.Precision > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
		}
		return "DECIMAL"
	default:
		return t.Kind.String()
	}
}

// Numeric reports whether values of this type participate in arithmetic
// and aggregate SUM/AVG directly.
func (t SqlType) Numeric() bool {
	switch t.Kind {
	case KindInteger, KindBigInt, KindFloat, KindDecimal:
		return true
	default:
		return false
	}
}

// Value is a single SQL scalar. Exactly the fields matching Kind are
// meaningful; Null is orthogonal to Kind so a NULL value still remembers
// the type it would have held (needed by the row codec to pick a wire
// type tag for a NULL cell).
type Value struct {
	Kind  Kind
	Null  bool
	Int   int64
	Float float64
	Dec   decimal.Decimal
	Bool  bool
	Str   string
	Time  time.Time
	UUID  uuid.UUID
}

func Null(k Kind) Value { return Value{Kind: k, Null: true} }

func Integer(v int64) Value   { return Value{Kind: KindInteger, Int: v} }
func BigInt(v int64) Value    { return Value{Kind: KindBigInt, Int: v} }
func Float(v float64) Value   { return Value{Kind: KindFloat, Float: v} }
func Decimal(v decimal.Decimal) Value { return Value{Kind: KindDecimal, Dec: v} }
func Boolean(v bool) Value    { return Value{Kind: KindBoolean, Bool: v} }
func Text(v string) Value     { return Value{Kind: KindText, Str: v} }
func Char(v string) Value     { return Value{Kind: KindChar, Str: v} }
func Date(v time.Time) Value      { return Value{Kind: KindDate, Time: v} }
func Time(v time.Time) Value      { return Value{Kind: KindTime, Time: v} }
func Timestamp(v time.Time) Value { return Value{Kind: KindTimestamp, Time: v} }
func Uuid(v uuid.UUID) Value  { return Value{Kind: KindUuid, UUID: v} }
func Json(v string) Value     { return Value{Kind: KindJson, Str: v} }

func (v Value) IsNull() bool { return v.Null }

// AsText returns a display form of v, used for logging, CAST to text, and
// the row codec's text-format fallback. NULL renders as "".
func (v Value) AsText() string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case KindInteger, KindBigInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindDecimal:
		if e := v.Dec.Exponent(); e < 0 {
			return v.Dec.StringFixed(-e)
		}
		return v.Dec.String()
	case KindBoolean:
		if v.Bool {
			return "t"
		}
		return "f"
	case KindText, KindChar, KindJson:
		return v.Str
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindTime:
		return v.Time.Format("15:04:05")
	case KindTimestamp:
		return v.Time.Format("2006-01-02 15:04:05.999999")
	case KindUuid:
		return v.UUID.String()
	default:
		return ""
	}
}

// key produces a canonical, comparable string encoding of v used for
// primary-key indexing, GROUP BY bucketing, and DISTINCT dedup. Two
// values that are SQL "equivalent" (see Equivalent) always produce the
// same key, including NULL, which is not equal to itself under SQL `=`
// but must bucket identically for GROUP BY/DISTINCT purposes.
func (v Value) key() string {
	if v.Null {
		return "\x00NULL"
	}
	switch v.Kind {
	case KindInteger, KindBigInt:
		return "i:" + strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return "f:" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindDecimal:
		return "d:" + v.Dec.String()
	case KindBoolean:
		return "b:" + strconv.FormatBool(v.Bool)
	case KindText, KindChar, KindJson:
		return "s:" + v.Str
	case KindDate:
		return "date:" + v.Time.Format(time.RFC3339Nano)
	case KindTime:
		return "time:" + v.Time.Format(time.RFC3339Nano)
	case KindTimestamp:
		return "ts:" + v.Time.Format(time.RFC3339Nano)
	case KindUuid:
		return "u:" + v.UUID.String()
	default:
		return "?"
	}
}

// Key exposes the canonical bucket key for callers outside the package
// (store PK index, exec GROUP BY/DISTINCT).
func (v Value) Key() string { return v.key() }

// Equivalent is the NULL-aware identity predicate spec.md §9 calls for:
// unlike SQL `=`, two NULLs are Equivalent to each other, and it never
// itself returns NULL. Used by GROUP BY bucketing and DISTINCT dedup,
// never by WHERE/HAVING filtering (those use eval's three-valued `=`).
func (v Value) Equivalent(o Value) bool {
	return v.key() == o.key()
}

func (v Value) String() string {
	if v.Null {
		return fmt.Sprintf("NULL(%s)", v.Kind)
	}
	return fmt.Sprintf("%s(%s)", v.Kind, v.AsText())
}
