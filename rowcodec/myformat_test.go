package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/flatsql/sqltypes"
)

func TestMyFieldType(t *testing.T) {
	tests := []struct {
		kind sqltypes.Kind
		want byte
	}{
		{sqltypes.KindInteger, myTypeLong},
		{sqltypes.KindBigInt, myTypeLongLong},
		{sqltypes.KindFloat, myTypeDouble},
		{sqltypes.KindDecimal, myTypeNewDecimal},
		{sqltypes.KindBoolean, myTypeTiny},
		{sqltypes.KindChar, myTypeString},
		{sqltypes.KindDate, myTypeDate},
		{sqltypes.KindTime, myTypeTime},
		{sqltypes.KindTimestamp, myTypeDateTime},
		{sqltypes.KindJson, myTypeJSON},
		{sqltypes.KindText, myTypeVarString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MyFieldType(sqltypes.SqlType{Kind: tt.kind}), tt.kind)
	}
}

func TestMyFlags_NotNull(t *testing.T) {
	flags := MyFlags(sqltypes.SqlType{Kind: sqltypes.KindInteger}, false)
	assert.NotZero(t, flags&myFlagNotNull)
}

func TestMyFlags_Nullable(t *testing.T) {
	flags := MyFlags(sqltypes.SqlType{Kind: sqltypes.KindInteger}, true)
	assert.Zero(t, flags&myFlagNotNull)
}

func TestMyFlags_JSONIsBinary(t *testing.T) {
	flags := MyFlags(sqltypes.SqlType{Kind: sqltypes.KindJson}, true)
	assert.NotZero(t, flags&myFlagBinary)
}

func TestMyDecimals(t *testing.T) {
	assert.Equal(t, byte(2), MyDecimals(sqltypes.SqlType{Kind: sqltypes.KindDecimal, Scale: 2}))
	assert.Equal(t, byte(0x1f), MyDecimals(sqltypes.SqlType{Kind: sqltypes.KindFloat}))
	assert.Equal(t, byte(0x00), MyDecimals(sqltypes.SqlType{Kind: sqltypes.KindInteger}))
}

func TestEncodeMyText(t *testing.T) {
	assert.Equal(t, []byte("42"), EncodeMyText(sqltypes.Integer(42)))
	assert.Equal(t, []byte("hello"), EncodeMyText(sqltypes.Text("hello")))
}
