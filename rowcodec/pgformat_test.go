package rowcodec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/sqltypes"
)

func TestEncodePg_Null(t *testing.T) {
	b, err := EncodePg(sqltypes.Null(sqltypes.KindInteger), PgText)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestEncodePg_TextFormat(t *testing.T) {
	b, err := EncodePg(sqltypes.Integer(42), PgText)
	require.NoError(t, err)
	assert.Equal(t, "42", string(b))
}

func TestEncodePg_BinaryInteger(t *testing.T) {
	b, err := EncodePg(sqltypes.Integer(42), PgBinary)
	require.NoError(t, err)
	require.Len(t, b, 4)
	assert.Equal(t, uint32(42), binary.BigEndian.Uint32(b))
}

func TestEncodePg_BinaryBigInt(t *testing.T) {
	b, err := EncodePg(sqltypes.BigInt(123456789012), PgBinary)
	require.NoError(t, err)
	require.Len(t, b, 8)
	assert.Equal(t, uint64(123456789012), binary.BigEndian.Uint64(b))
}

func TestEncodePg_BinaryFloat(t *testing.T) {
	b, err := EncodePg(sqltypes.Float(3.5), PgBinary)
	require.NoError(t, err)
	require.Len(t, b, 8)
	assert.Equal(t, 3.5, math.Float64frombits(binary.BigEndian.Uint64(b)))
}

func TestEncodePg_BinaryBoolean(t *testing.T) {
	b, err := EncodePg(sqltypes.Boolean(true), PgBinary)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, b)

	b, err = EncodePg(sqltypes.Boolean(false), PgBinary)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, b)
}

func TestEncodePg_BinaryFallsBackToTextForDecimal(t *testing.T) {
	v := sqltypes.Decimal(decimal.RequireFromString("19.99"))
	b, err := EncodePg(v, PgBinary)
	require.NoError(t, err)
	assert.Equal(t, "19.99", string(b))
}

func TestEncodePg_TextStringValue(t *testing.T) {
	b, err := EncodePg(sqltypes.Text("hello"), PgText)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}
