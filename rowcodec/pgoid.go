// Package rowcodec maps the executor's Relation rows onto each wire
// protocol's type-tag and byte encoding: component 4.4 of the engine,
// the seam protocol/pg and protocol/mysql both sit on top of.
package rowcodec

import (
	"github.com/lib/pq/oid"

	"github.com/mstgnz/flatsql/sqltypes"
)

// PgOID maps an internal SqlType to the protocol-A type OID RowDescription
// advertises, grounded on the apecloud pgserver's VitessTypeToObjectID
// switch over the same family of engine-internal kinds.
func PgOID(t sqltypes.SqlType) uint32 {
	switch t.Kind {
	case sqltypes.KindInteger:
		return uint32(oid.T_int4)
	case sqltypes.KindBigInt:
		return uint32(oid.T_int8)
	case sqltypes.KindFloat:
		return uint32(oid.T_float8)
	case sqltypes.KindDecimal:
		return uint32(oid.T_numeric)
	case sqltypes.KindBoolean:
		return uint32(oid.T_bool)
	case sqltypes.KindChar:
		return uint32(oid.T_bpchar)
	case sqltypes.KindDate:
		return uint32(oid.T_date)
	case sqltypes.KindTime:
		return uint32(oid.T_time)
	case sqltypes.KindTimestamp:
		return uint32(oid.T_timestamp)
	case sqltypes.KindUuid:
		return uint32(oid.T_uuid)
	case sqltypes.KindJson:
		return uint32(oid.T_json)
	case sqltypes.KindText, sqltypes.KindNull:
		return uint32(oid.T_text)
	default:
		return uint32(oid.T_text)
	}
}

// PgTypeSize returns the wire-advertised byte width RowDescription's
// DataTypeSize field carries for fixed-width types, or -1 for anything
// variable-length, matching pg_type.typlen.
func PgTypeSize(t sqltypes.SqlType) int16 {
	switch t.Kind {
	case sqltypes.KindInteger:
		return 4
	case sqltypes.KindBigInt, sqltypes.KindFloat, sqltypes.KindTime, sqltypes.KindTimestamp:
		return 8
	case sqltypes.KindBoolean:
		return 1
	case sqltypes.KindDate:
		return 4
	case sqltypes.KindUuid:
		return 16
	default:
		return -1
	}
}

// PgTypeMod encodes a Decimal(p,s)/Char(n) column's declared parameters
// into the atttypmod field the way Postgres does for NUMERIC and BPCHAR:
// -1 when the type carries no parameters.
func PgTypeMod(t sqltypes.SqlType) int32 {
	switch t.Kind {
	case sqltypes.KindDecimal:
		if t.Precision == 0 {
			return -1
		}
		return int32(t.Precision<<16|t.Scale) + 4
	case sqltypes.KindChar:
		if t.Length == 0 {
			return -1
		}
		return int32(t.Length) + 4
	default:
		return -1
	}
}
