package sqltypes

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValue_AsText(t *testing.T) {
	assert.Equal(t, "42", Integer(42).AsText())
	assert.Equal(t, "t", Boolean(true).AsText())
	assert.Equal(t, "f", Boolean(false).AsText())
	assert.Equal(t, "hi", Text("hi").AsText())
	assert.Equal(t, "", Null(KindText).AsText())
	assert.Equal(t, "12.50", Decimal(decimal.RequireFromString("12.50")).AsText())
}

func TestValue_Equivalent(t *testing.T) {
	assert.True(t, Null(KindInteger).Equivalent(Null(KindText)), "NULL is equivalent to NULL regardless of kind, per spec.md §9 grouping semantics")
	assert.True(t, Integer(1).Equivalent(Integer(1)))
	assert.False(t, Integer(1).Equivalent(Integer(2)))
	assert.False(t, Integer(1).Equivalent(Null(KindInteger)))
}

func TestValue_IsNull(t *testing.T) {
	assert.True(t, Null(KindInteger).IsNull())
	assert.False(t, Integer(0).IsNull())
}

func TestSqlType_Numeric(t *testing.T) {
	assert.True(t, SqlType{Kind: KindInteger}.Numeric())
	assert.True(t, SqlType{Kind: KindDecimal}.Numeric())
	assert.False(t, SqlType{Kind: KindText}.Numeric())
	assert.False(t, SqlType{Kind: KindBoolean}.Numeric())
}

func TestSqlType_String(t *testing.T) {
	assert.Equal(t, "CHAR(10)", SqlType{Kind: KindChar, Length: 10}.String())
	assert.Equal(t, "CHAR", SqlType{Kind: KindChar}.String())
	assert.Equal(t, "DECIMAL(10,2)", SqlType{Kind: KindDecimal, Precision: 10, Scale: 2}.String())
	assert.Equal(t, "INTEGER", SqlType{Kind: KindInteger}.String())
}
