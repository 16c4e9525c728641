package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/exec"
	"github.com/mstgnz/flatsql/sqltypes"
)

func TestOkPacket_Header(t *testing.T) {
	buf := okPacket(1, 0, 0, "")
	assert.Equal(t, byte(0x00), buf[0])
}

func TestErrPacket_Layout(t *testing.T) {
	buf := errPacket(1045, "28000", "Access denied")
	assert.Equal(t, byte(0xff), buf[0])
	assert.Equal(t, byte('#'), buf[3])
	assert.Contains(t, string(buf), "28000")
	assert.Contains(t, string(buf), "Access denied")
}

func TestEofPacket_Header(t *testing.T) {
	buf := eofPacket(2)
	assert.Equal(t, byte(0xfe), buf[0])
}

func TestColumnDefinition41_EncodesName(t *testing.T) {
	col := exec.ColRef{Name: "id", Type: sqltypes.SqlType{Kind: sqltypes.KindInteger}}
	buf := columnDefinition41(col)
	n, rest, err := readLenEncInt(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n) // "def"
	assert.Equal(t, "def", string(rest[:3]))
}

func TestEncodeTextRow_NullMarker(t *testing.T) {
	row := sqltypes.Row{sqltypes.Integer(1), sqltypes.Null(sqltypes.KindText)}
	buf := encodeTextRow(row)
	n, rest, err := readLenEncInt(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, "1", string(rest[:1]))
	assert.Equal(t, byte(0xfb), rest[1])
}

func TestEncodeTextRow_AllValues(t *testing.T) {
	row := sqltypes.Row{sqltypes.Text("hi")}
	buf := encodeTextRow(row)
	n, rest, err := readLenEncInt(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, "hi", string(rest))
}
