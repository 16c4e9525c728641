package mysql

import (
	"github.com/mstgnz/flatsql/exec"
	"github.com/mstgnz/flatsql/rowcodec"
	"github.com/mstgnz/flatsql/sqltypes"
)

const (
	statusAutocommit uint16 = 0x0002
)

// okPacket builds an OK_Packet (header 0x00): affected rows, last
// insert id (always 0, this engine never mutates), status flags,
// warnings, and a human-readable info string.
func okPacket(affectedRows, lastInsertID uint64, warnings uint16, info string) []byte {
	buf := []byte{0x00}
	buf = writeLenEncInt(buf, affectedRows)
	buf = writeLenEncInt(buf, lastInsertID)
	buf = append(buf, byte(statusAutocommit), byte(statusAutocommit>>8))
	buf = append(buf, byte(warnings), byte(warnings>>8))
	buf = append(buf, info...)
	return buf
}

// errPacket builds an ERR_Packet (header 0xff) carrying a MySQL error
// code and a five-character SQLSTATE, per the protocol's error format.
func errPacket(code uint16, sqlState, message string) []byte {
	buf := []byte{0xff, byte(code), byte(code >> 8), '#'}
	buf = append(buf, sqlState...)
	buf = append(buf, message...)
	return buf
}

func (c *Conn) sendErrPacket(code uint16, sqlState, message string) error {
	return c.pc.writePacket(errPacket(code, sqlState, message))
}

// eofPacket builds the legacy EOF_Packet (header 0xfe, payload < 9
// bytes) that terminates column-definition and row sequences for
// clients that did not request CLIENT_DEPRECATE_EOF — which this server
// never advertises, so every resultset ends this way.
func eofPacket(warnings uint16) []byte {
	buf := []byte{0xfe}
	buf = append(buf, byte(warnings), byte(warnings>>8))
	buf = append(buf, byte(statusAutocommit), byte(statusAutocommit>>8))
	return buf
}

// columnDefinition41 builds one Protocol::ColumnDefinition41 packet
// payload describing schema column col.
func columnDefinition41(col exec.ColRef) []byte {
	buf := writeLenEncString(nil, "def")
	buf = writeLenEncString(buf, "")  // schema
	buf = writeLenEncString(buf, "")  // table
	buf = writeLenEncString(buf, "")  // org_table
	buf = writeLenEncString(buf, col.Name)
	buf = writeLenEncString(buf, col.Name) // org_name
	buf = writeLenEncInt(buf, 0x0c)         // length of fixed-length fields, always 0x0c
	buf = append(buf, 0x2d, 0x00)           // character set: utf8mb4_general_ci placeholder
	columnLen := make([]byte, 4)
	buf = append(buf, columnLen...) // column length, unused by drivers for scanning
	buf = append(buf, rowcodec.MyFieldType(col.Type))
	flags := rowcodec.MyFlags(col.Type, true)
	buf = append(buf, byte(flags), byte(flags>>8))
	buf = append(buf, rowcodec.MyDecimals(col.Type))
	buf = append(buf, 0, 0) // filler
	return buf
}

// sendResultSet streams a full text-protocol resultset: column count,
// one column-definition packet per column, EOF, one row packet per row
// (NULL cells marked 0xfb), and a final EOF/status terminator.
func (c *Conn) sendResultSet(rel *exec.Relation) error {
	if err := c.pc.writePacket(writeLenEncInt(nil, uint64(len(rel.Schema)))); err != nil {
		return err
	}
	for _, col := range rel.Schema {
		if err := c.pc.writePacket(columnDefinition41(col)); err != nil {
			return err
		}
	}
	if err := c.pc.writePacket(eofPacket(0)); err != nil {
		return err
	}

	for _, row := range rel.Rows {
		if err := c.pc.writePacket(encodeTextRow(row)); err != nil {
			return err
		}
	}
	return c.pc.writePacket(eofPacket(0))
}

func encodeTextRow(row sqltypes.Row) []byte {
	var buf []byte
	for _, v := range row {
		if v.Null {
			buf = append(buf, 0xfb)
			continue
		}
		buf = writeLenEncString(buf, string(rowcodec.EncodeMyText(v)))
	}
	return buf
}
