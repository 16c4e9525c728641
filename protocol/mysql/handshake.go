package mysql

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/server"
)

// Capability flags this server advertises and expects back, per the
// handshake's CLIENT_* bitmask (only the subset this engine cares about).
const (
	capLongPassword     uint32 = 0x00000001
	capConnectWithDB    uint32 = 0x00000008
	capProtocol41       uint32 = 0x00000200
	capSecureConnection uint32 = 0x00008000
	capPluginAuth       uint32 = 0x00080000
)

const serverCapabilities = capLongPassword | capConnectWithDB | capProtocol41 | capSecureConnection | capPluginAuth

const (
	pluginCR2    = "caching_sha2_password"
	pluginLegacy = "mysql_native_password"
)

// generateNonce produces the per-connection random challenge spec.md §9
// requires ("cryptographically random per connection").
func generateNonce() ([]byte, error) {
	nonce := make([]byte, 20)
	if _, err := rand.Read(nonce); err != nil {
		return nil, flaterr.New(flaterr.ErrTypeIO, "generating auth nonce", err)
	}
	return nonce, nil
}

// scrambleCR2 reproduces the caching_sha2_password full-authentication
// scramble: XOR(SHA256(password), SHA256(SHA256(SHA256(password)), nonce)).
// Real MySQL servers only take this path when they hold no cached hash
// for the connecting user and must fall back to a slow RSA- or
// TLS-protected exchange to learn the cleartext password; flatsql always
// holds the configured password in the clear already (it came from the
// CLI or the declarative document, never from a client), so it can
// validate this scramble directly on every connection and the fast-path/
// slow-path distinction collapses into this one comparison.
func scrambleCR2(password string, nonce []byte) []byte {
	stage1 := sha256.Sum256([]byte(password))
	stage2 := sha256.Sum256(stage1[:])
	h := sha256.New()
	h.Write(stage2[:])
	h.Write(nonce)
	stage3 := h.Sum(nil)
	return xorBytes(stage1[:], stage3)
}

// scrambleLegacy reproduces mysql_native_password's SHA-1 scramble, the
// fallback legacy method spec.md §4.5 names for clients that don't
// negotiate CR2.
func scrambleLegacy(password string, nonce []byte) []byte {
	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])
	h := sha1.New()
	h.Write(nonce)
	h.Write(stage2[:])
	stage3 := h.Sum(nil)
	return xorBytes(stage1[:], stage3)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i%len(b)]
	}
	return out
}

// buildHandshakeV10 assembles the initial HandshakeV10 packet payload:
// protocol version 10, a fixed server-version banner, connection id, the
// two-part 20-byte auth-plugin nonce, advertised capabilities, and the
// default plugin name.
func buildHandshakeV10(connectionID uint32, nonce []byte, plugin string) []byte {
	buf := []byte{10}
	buf = writeNulString(buf, "8.0.34-flatsql")
	connID := make([]byte, 4)
	binary.LittleEndian.PutUint32(connID, connectionID)
	buf = append(buf, connID...)
	buf = append(buf, nonce[:8]...)
	buf = append(buf, 0) // filler
	buf = append(buf, byte(serverCapabilities), byte(serverCapabilities>>8))
	buf = append(buf, 0xff) // character set: utf8mb4 collation placeholder byte, value unchecked by drivers here
	buf = append(buf, 2, 0) // status flags: SERVER_STATUS_AUTOCOMMIT
	buf = append(buf, byte(serverCapabilities>>16), byte(serverCapabilities>>24))
	buf = append(buf, byte(len(nonce)+1))
	buf = append(buf, make([]byte, 10)...) // reserved
	buf = append(buf, nonce[8:]...)
	buf = append(buf, 0)
	buf = writeNulString(buf, plugin)
	return buf
}

// handshakeResponse is the client's parsed HandshakeResponse41.
type handshakeResponse struct {
	clientFlags  uint32
	username     string
	authResponse []byte
	database     string
	authPlugin   string
}

func parseHandshakeResponse41(payload []byte) (*handshakeResponse, error) {
	if len(payload) < 32 {
		return nil, flaterr.New(flaterr.ErrTypeProtocol, "handshake response too short", nil)
	}
	r := &handshakeResponse{clientFlags: binary.LittleEndian.Uint32(payload[0:4])}
	rest := payload[32:]

	username, rest, err := readNulString(rest)
	if err != nil {
		return nil, err
	}
	r.username = username

	if r.clientFlags&capSecureConnection != 0 {
		if len(rest) == 0 {
			return nil, flaterr.New(flaterr.ErrTypeProtocol, "missing auth-response length", nil)
		}
		authLen := int(rest[0])
		rest = rest[1:]
		if len(rest) < authLen {
			return nil, flaterr.New(flaterr.ErrTypeProtocol, "truncated auth-response", nil)
		}
		r.authResponse = rest[:authLen]
		rest = rest[authLen:]
	} else {
		auth, tail, err := readNulString(rest)
		if err != nil {
			return nil, err
		}
		r.authResponse = []byte(auth)
		rest = tail
	}

	if r.clientFlags&capConnectWithDB != 0 {
		db, tail, err := readNulString(rest)
		if err != nil {
			return nil, err
		}
		r.database = db
		rest = tail
	}

	if r.clientFlags&capPluginAuth != 0 {
		plugin, _, err := readNulString(rest)
		if err == nil {
			r.authPlugin = plugin
		}
	}
	return r, nil
}

// authenticate runs the handshake exchange to completion: the initial
// HandshakeV10 advertising CR2, a possible AuthSwitchRequest down to the
// legacy method when the client asked for it, and the final OK/ERR.
func (c *Conn) authenticate() error {
	nonce, err := generateNonce()
	if err != nil {
		return err
	}

	c.pc.resetSeq()
	if err := c.pc.writePacket(buildHandshakeV10(c.connID, nonce, pluginCR2)); err != nil {
		return err
	}

	payload, err := c.pc.readPacket()
	if err != nil {
		return err
	}
	resp, err := parseHandshakeResponse41(payload)
	if err != nil {
		return err
	}

	plugin := pluginCR2
	authResponse := resp.authResponse
	if resp.authPlugin != "" && resp.authPlugin != pluginCR2 {
		plugin = pluginLegacy
		switchPayload := []byte{0xfe}
		switchPayload = writeNulString(switchPayload, pluginLegacy)
		switchPayload = append(switchPayload, nonce...)
		if err := c.pc.writePacket(switchPayload); err != nil {
			return err
		}
		authResponse, err = c.pc.readPacket()
		if err != nil {
			return err
		}
	}

	creds := server.Resolve(c.cliUsername, c.cliPassword, c.store.Snapshot())
	if !credentialsMatch(creds, resp.username, authResponse, nonce, plugin) {
		return c.sendErrPacket(1045, "28000", "Access denied for user '"+resp.username+"'")
	}

	c.pc.writePacket(okPacket(0, 0, 0, ""))
	return nil
}

func credentialsMatch(creds server.Credentials, username string, authResponse, nonce []byte, plugin string) bool {
	if creds.Anonymous() {
		return true
	}
	if username != creds.Username {
		return false
	}
	var expected []byte
	if plugin == pluginLegacy {
		expected = scrambleLegacy(creds.Password, nonce)
	} else {
		expected = scrambleCR2(creds.Password, nonce)
	}
	if len(expected) != len(authResponse) {
		return false
	}
	for i := range expected {
		if expected[i] != authResponse[i] {
			return false
		}
	}
	return true
}
