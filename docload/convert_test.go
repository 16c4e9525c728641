package docload

import (
	"testing"

	"github.com/mstgnz/flatsql/sqltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertValue_Null(t *testing.T) {
	v, err := convertValue(nil, sqltypes.SqlType{Kind: sqltypes.KindInteger})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestConvertValue_Integer(t *testing.T) {
	v, err := convertValue(42, sqltypes.SqlType{Kind: sqltypes.KindInteger})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)
}

func TestConvertValue_DecimalFromString(t *testing.T) {
	v, err := convertValue("19.99", sqltypes.SqlType{Kind: sqltypes.KindDecimal, Precision: 10, Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, "19.99", v.Dec.String())
}

func TestConvertValue_BooleanTypeMismatch(t *testing.T) {
	_, err := convertValue("not-a-bool", sqltypes.SqlType{Kind: sqltypes.KindBoolean})
	assert.Error(t, err)
}

func TestConvertValue_Uuid(t *testing.T) {
	v, err := convertValue("550e8400-e29b-41d4-a716-446655440000", sqltypes.SqlType{Kind: sqltypes.KindUuid})
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", v.UUID.String())
}

func TestConvertValue_Date(t *testing.T) {
	v, err := convertValue("2025-01-31", sqltypes.SqlType{Kind: sqltypes.KindDate})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", v.AsText())
}

func TestConvertValue_JsonFromMap(t *testing.T) {
	v, err := convertValue(map[string]interface{}{"a": 1}, sqltypes.SqlType{Kind: sqltypes.KindJson})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, v.Str)
}
