package rowcodec

import "github.com/mstgnz/flatsql/sqltypes"

// MySQL column type tags, per the wire protocol's
// Protocol::ColumnType enumeration.
const (
	myTypeTiny       byte = 0x01
	myTypeLong       byte = 0x03
	myTypeDouble     byte = 0x05
	myTypeTimestamp  byte = 0x07
	myTypeLongLong   byte = 0x08
	myTypeDate       byte = 0x0a
	myTypeTime       byte = 0x0b
	myTypeDateTime   byte = 0x0c
	myTypeVarString  byte = 0x0f
	myTypeJSON       byte = 0xf5
	myTypeNewDecimal byte = 0xf6
	myTypeString     byte = 0xfe
)

const (
	myFlagNotNull uint16 = 0x0001
	myFlagBinary  uint16 = 0x0080
)

// MyFieldType maps an internal SqlType to the column-definition type byte
// protocol B's column-definition packets carry.
func MyFieldType(t sqltypes.SqlType) byte {
	switch t.Kind {
	case sqltypes.KindInteger:
		return myTypeLong
	case sqltypes.KindBigInt:
		return myTypeLongLong
	case sqltypes.KindFloat:
		return myTypeDouble
	case sqltypes.KindDecimal:
		return myTypeNewDecimal
	case sqltypes.KindBoolean:
		return myTypeTiny
	case sqltypes.KindChar:
		return myTypeString
	case sqltypes.KindDate:
		return myTypeDate
	case sqltypes.KindTime:
		return myTypeTime
	case sqltypes.KindTimestamp:
		return myTypeDateTime
	case sqltypes.KindJson:
		return myTypeJSON
	default:
		return myTypeVarString
	}
}

// MyFlags builds the column-definition flags word clients use to decide
// a scan destination (NOT_NULL, BINARY for opaque/JSON text).
func MyFlags(t sqltypes.SqlType, nullable bool) uint16 {
	var flags uint16
	if !nullable {
		flags |= myFlagNotNull
	}
	if t.Kind == sqltypes.KindJson {
		flags |= myFlagBinary
	}
	return flags
}

// MyDecimals returns the column-definition "decimals" byte: the number
// of digits after the decimal point for DECIMAL/FLOAT/DOUBLE columns,
// 0x1f ("not applicable") otherwise.
func MyDecimals(t sqltypes.SqlType) byte {
	switch t.Kind {
	case sqltypes.KindDecimal:
		return byte(t.Scale)
	case sqltypes.KindFloat:
		return 0x1f
	default:
		return 0x00
	}
}

// EncodeMyText renders v as the bytes of a length-encoded-string cell in
// protocol B's text resultset rows. Callers write the 0xfb NULL marker
// themselves instead of calling this for a NULL value.
func EncodeMyText(v sqltypes.Value) []byte {
	return []byte(v.AsText())
}
