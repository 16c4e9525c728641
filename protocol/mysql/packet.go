// Package mysql implements protocol B, the packet-oriented wire protocol
// of spec.md §4.5, hand-rolled directly against the public MySQL client/
// server protocol documentation: no example repo in the retrieval pack
// implements the wire framing itself, only go-sql-driver/mysql's client
// side, which this package's own integration test exercises against it.
package mysql

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/mstgnz/flatsql/flaterr"
)

// maxPacketPayload is the single-packet payload ceiling before a real
// client would expect a zero-length terminator packet. Every response
// and request this engine handles fits well under it, so the
// continuation case is left unimplemented and simply errors.
const maxPacketPayload = 1<<24 - 1

// packetConn frames one MySQL connection's reads and writes: a 3-byte
// little-endian length, a 1-byte sequence number, then the payload. The
// sequence number resets to 0 at the start of each command and
// increments by one per packet exchanged within it.
type packetConn struct {
	conn net.Conn
	seq  byte
}

func newPacketConn(conn net.Conn) *packetConn {
	return &packetConn{conn: conn}
}

// resetSeq starts a new command sequence, per the protocol's rule that
// sequence numbers restart at 0 for each new client command.
func (p *packetConn) resetSeq() {
	p.seq = 0
}

func (p *packetConn) readPacket() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(p.conn, header[:]); err != nil {
		return nil, flaterr.New(flaterr.ErrTypeIO, "reading packet header", err)
	}
	length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
	seq := header[3]
	if length >= maxPacketPayload {
		return nil, flaterr.New(flaterr.ErrTypeProtocol, "multi-packet payloads are not supported", nil)
	}
	p.seq = seq + 1

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(p.conn, payload); err != nil {
			return nil, flaterr.New(flaterr.ErrTypeIO, "reading packet payload", err)
		}
	}
	return payload, nil
}

func (p *packetConn) writePacket(payload []byte) error {
	if len(payload) >= maxPacketPayload {
		return flaterr.New(flaterr.ErrTypeProtocol, "multi-packet payloads are not supported", nil)
	}
	header := make([]byte, 4, 4+len(payload))
	header[0] = byte(len(payload))
	header[1] = byte(len(payload) >> 8)
	header[2] = byte(len(payload) >> 16)
	header[3] = p.seq
	p.seq++
	header = append(header, payload...)
	if _, err := p.conn.Write(header); err != nil {
		return flaterr.New(flaterr.ErrTypeIO, "writing packet", err)
	}
	return nil
}

// --- length-encoded integer/string helpers (Protocol::LengthEncodedInteger/String) ---

func writeLenEncInt(buf []byte, n uint64) []byte {
	switch {
	case n < 251:
		return append(buf, byte(n))
	case n < 1<<16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(n))
		return append(append(buf, 0xfc), b...)
	case n < 1<<24:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		return append(append(buf, 0xfd), b[:3]...)
	default:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, n)
		return append(append(buf, 0xfe), b...)
	}
}

func writeLenEncString(buf []byte, s string) []byte {
	buf = writeLenEncInt(buf, uint64(len(s)))
	return append(buf, s...)
}

func writeNulString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

func readLenEncInt(b []byte) (uint64, []byte, error) {
	if len(b) == 0 {
		return 0, nil, flaterr.New(flaterr.ErrTypeProtocol, "truncated length-encoded integer", nil)
	}
	switch {
	case b[0] < 251:
		return uint64(b[0]), b[1:], nil
	case b[0] == 0xfc:
		if len(b) < 3 {
			return 0, nil, flaterr.New(flaterr.ErrTypeProtocol, "truncated 2-byte length-encoded integer", nil)
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), b[3:], nil
	case b[0] == 0xfd:
		if len(b) < 4 {
			return 0, nil, flaterr.New(flaterr.ErrTypeProtocol, "truncated 3-byte length-encoded integer", nil)
		}
		return uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16, b[4:], nil
	case b[0] == 0xfe:
		if len(b) < 9 {
			return 0, nil, flaterr.New(flaterr.ErrTypeProtocol, "truncated 8-byte length-encoded integer", nil)
		}
		return binary.LittleEndian.Uint64(b[1:9]), b[9:], nil
	default:
		return 0, nil, flaterr.New(flaterr.ErrTypeProtocol, "invalid length-encoded integer prefix", nil)
	}
}

func readNulString(b []byte) (string, []byte, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	return "", nil, flaterr.New(flaterr.ErrTypeProtocol, "unterminated null-delimited string", nil)
}
