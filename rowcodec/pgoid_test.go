package rowcodec

import (
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/flatsql/sqltypes"
)

func TestPgOID(t *testing.T) {
	tests := []struct {
		kind sqltypes.Kind
		want oid.Oid
	}{
		{sqltypes.KindInteger, oid.T_int4},
		{sqltypes.KindBigInt, oid.T_int8},
		{sqltypes.KindFloat, oid.T_float8},
		{sqltypes.KindDecimal, oid.T_numeric},
		{sqltypes.KindBoolean, oid.T_bool},
		{sqltypes.KindChar, oid.T_bpchar},
		{sqltypes.KindDate, oid.T_date},
		{sqltypes.KindTime, oid.T_time},
		{sqltypes.KindTimestamp, oid.T_timestamp},
		{sqltypes.KindUuid, oid.T_uuid},
		{sqltypes.KindJson, oid.T_json},
		{sqltypes.KindText, oid.T_text},
	}
	for _, tt := range tests {
		assert.Equal(t, uint32(tt.want), PgOID(sqltypes.SqlType{Kind: tt.kind}), tt.kind)
	}
}

func TestPgTypeSize(t *testing.T) {
	assert.Equal(t, int16(4), PgTypeSize(sqltypes.SqlType{Kind: sqltypes.KindInteger}))
	assert.Equal(t, int16(8), PgTypeSize(sqltypes.SqlType{Kind: sqltypes.KindBigInt}))
	assert.Equal(t, int16(1), PgTypeSize(sqltypes.SqlType{Kind: sqltypes.KindBoolean}))
	assert.Equal(t, int16(16), PgTypeSize(sqltypes.SqlType{Kind: sqltypes.KindUuid}))
	assert.Equal(t, int16(-1), PgTypeSize(sqltypes.SqlType{Kind: sqltypes.KindText}))
}

func TestPgTypeMod_Decimal(t *testing.T) {
	assert.Equal(t, int32(-1), PgTypeMod(sqltypes.SqlType{Kind: sqltypes.KindDecimal}))
	got := PgTypeMod(sqltypes.SqlType{Kind: sqltypes.KindDecimal, Precision: 10, Scale: 2})
	assert.Equal(t, int32(10<<16|2)+4, got)
}

func TestPgTypeMod_Char(t *testing.T) {
	assert.Equal(t, int32(-1), PgTypeMod(sqltypes.SqlType{Kind: sqltypes.KindChar}))
	assert.Equal(t, int32(104), PgTypeMod(sqltypes.SqlType{Kind: sqltypes.KindChar, Length: 100}))
}
