package rowcodec

import (
	"encoding/binary"
	"math"

	"github.com/mstgnz/flatsql/sqltypes"
)

// PgFormat mirrors pgproto3's wire format code carried in RowDescription's
// FieldDescription.Format and Bind's per-parameter/result format list.
type PgFormat int16

const (
	PgText   PgFormat = 0
	PgBinary PgFormat = 1
)

// EncodePg renders one cell for protocol A in the format the client
// selected at Bind time. NULL always encodes as a nil byte slice
// regardless of format, which pgproto3.DataRow.Values treats as SQL
// NULL on the wire (a -1 length field, no bytes).
func EncodePg(v sqltypes.Value, format PgFormat) ([]byte, error) {
	if v.Null {
		return nil, nil
	}
	if format == PgBinary {
		if b, ok := encodePgBinary(v); ok {
			return b, nil
		}
	}
	return []byte(v.AsText()), nil
}

// encodePgBinary covers the fixed-width kinds simple drivers request in
// binary; everything else (text, decimal, date/time, uuid, json) falls
// back to the text encoding, which every pg wire client also accepts.
func encodePgBinary(v sqltypes.Value) ([]byte, bool) {
	switch v.Kind {
	case sqltypes.KindInteger:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v.Int))
		return b, true
	case sqltypes.KindBigInt:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v.Int))
		return b, true
	case sqltypes.KindFloat:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(v.Float))
		return b, true
	case sqltypes.KindBoolean:
		if v.Bool {
			return []byte{1}, true
		}
		return []byte{0}, true
	default:
		return nil, false
	}
}
