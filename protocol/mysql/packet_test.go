package mysql

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketConn_WriteReadRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sp := newPacketConn(server)
	cp := newPacketConn(client)

	go func() {
		sp.writePacket([]byte("hello"))
	}()

	payload, err := cp.readPacket()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(payload))
}

func TestPacketConn_SequenceIncrements(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sp := newPacketConn(server)
	cp := newPacketConn(client)

	go func() {
		sp.writePacket([]byte("a"))
		sp.writePacket([]byte("b"))
	}()

	_, err := cp.readPacket()
	require.NoError(t, err)
	assert.Equal(t, byte(1), cp.seq)
	_, err = cp.readPacket()
	require.NoError(t, err)
	assert.Equal(t, byte(2), cp.seq)
}

func TestPacketConn_ResetSeq(t *testing.T) {
	p := &packetConn{seq: 5}
	p.resetSeq()
	assert.Equal(t, byte(0), p.seq)
}

func TestPacketConn_EmptyPayload(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sp := newPacketConn(server)
	cp := newPacketConn(client)

	go func() {
		sp.writePacket(nil)
	}()

	payload, err := cp.readPacket()
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestLenEncInt_RoundTrip(t *testing.T) {
	tests := []uint64{0, 100, 250, 251, 1000, 1 << 16, 1 << 24, 1 << 32}
	for _, n := range tests {
		buf := writeLenEncInt(nil, n)
		got, rest, err := readLenEncInt(buf)
		require.NoError(t, err, n)
		assert.Equal(t, n, got, n)
		assert.Empty(t, rest)
	}
}

func TestLenEncString_RoundTrip(t *testing.T) {
	buf := writeLenEncString(nil, "hello world")
	n, rest, err := readLenEncInt(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), n)
	assert.Equal(t, "hello world", string(rest))
}

func TestNulString_RoundTrip(t *testing.T) {
	buf := writeNulString(nil, "root")
	buf = append(buf, "trailing"...)
	s, rest, err := readNulString(buf)
	require.NoError(t, err)
	assert.Equal(t, "root", s)
	assert.Equal(t, "trailing", string(rest))
}

func TestReadNulString_Unterminated(t *testing.T) {
	_, _, err := readNulString([]byte("no-terminator"))
	assert.Error(t, err)
}

func TestReadLenEncInt_Truncated(t *testing.T) {
	_, _, err := readLenEncInt([]byte{0xfc, 0x01})
	assert.Error(t, err)
}

func TestReadLenEncInt_Empty(t *testing.T) {
	_, _, err := readLenEncInt(nil)
	assert.Error(t, err)
}
