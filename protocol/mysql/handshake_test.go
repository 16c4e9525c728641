package mysql

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/server"
)

func TestGenerateNonce_Length(t *testing.T) {
	n, err := generateNonce()
	require.NoError(t, err)
	assert.Len(t, n, 20)
}

func TestGenerateNonce_Random(t *testing.T) {
	a, err := generateNonce()
	require.NoError(t, err)
	b, err := generateNonce()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestScrambleCR2_Deterministic(t *testing.T) {
	nonce := []byte("01234567890123456789")
	a := scrambleCR2("secret", nonce)
	b := scrambleCR2("secret", nonce)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestScrambleCR2_DifferentPasswordsDiffer(t *testing.T) {
	nonce := []byte("01234567890123456789")
	assert.NotEqual(t, scrambleCR2("secret", nonce), scrambleCR2("other", nonce))
}

func TestScrambleLegacy_Deterministic(t *testing.T) {
	nonce := []byte("01234567890123456789")
	a := scrambleLegacy("secret", nonce)
	b := scrambleLegacy("secret", nonce)
	assert.Equal(t, a, b)
	assert.Len(t, a, 20)
}

func TestBuildHandshakeV10_StartsWithProtocolVersion(t *testing.T) {
	nonce := make([]byte, 20)
	buf := buildHandshakeV10(7, nonce, pluginCR2)
	assert.Equal(t, byte(10), buf[0])

	connID := binary.LittleEndian.Uint32(buf[1+len("8.0.34-flatsql")+1 : 1+len("8.0.34-flatsql")+1+4])
	assert.Equal(t, uint32(7), connID)
}

func TestParseHandshakeResponse41_SecureConnection(t *testing.T) {
	var payload []byte
	flags := make([]byte, 4)
	binary.LittleEndian.PutUint32(flags, capProtocol41|capSecureConnection|capConnectWithDB|capPluginAuth)
	payload = append(payload, flags...)
	payload = append(payload, make([]byte, 28)...) // max packet size, charset, reserved
	payload = writeNulString(payload, "root")
	authResp := []byte{1, 2, 3, 4}
	payload = append(payload, byte(len(authResp)))
	payload = append(payload, authResp...)
	payload = writeNulString(payload, "mydb")
	payload = writeNulString(payload, "caching_sha2_password")

	resp, err := parseHandshakeResponse41(payload)
	require.NoError(t, err)
	assert.Equal(t, "root", resp.username)
	assert.Equal(t, authResp, resp.authResponse)
	assert.Equal(t, "mydb", resp.database)
	assert.Equal(t, "caching_sha2_password", resp.authPlugin)
}

func TestParseHandshakeResponse41_TooShort(t *testing.T) {
	_, err := parseHandshakeResponse41(make([]byte, 10))
	assert.Error(t, err)
}

func TestCredentialsMatch_Anonymous(t *testing.T) {
	assert.True(t, credentialsMatch(server.Credentials{}, "anyone", []byte("garbage"), []byte("nonce"), pluginCR2))
}

func TestCredentialsMatch_WrongUsername(t *testing.T) {
	creds := server.Credentials{Username: "admin", Password: "secret"}
	assert.False(t, credentialsMatch(creds, "other", nil, []byte("nonce"), pluginCR2))
}

func TestCredentialsMatch_CorrectScramble(t *testing.T) {
	creds := server.Credentials{Username: "admin", Password: "secret"}
	nonce := []byte("01234567890123456789")
	resp := scrambleCR2("secret", nonce)
	assert.True(t, credentialsMatch(creds, "admin", resp, nonce, pluginCR2))
}

func TestCredentialsMatch_WrongScramble(t *testing.T) {
	creds := server.Credentials{Username: "admin", Password: "secret"}
	nonce := []byte("01234567890123456789")
	assert.False(t, credentialsMatch(creds, "admin", []byte("wrong-response-bytes"), nonce, pluginCR2))
}

func TestCredentialsMatch_LegacyPlugin(t *testing.T) {
	creds := server.Credentials{Username: "admin", Password: "secret"}
	nonce := []byte("01234567890123456789")
	resp := scrambleLegacy("secret", nonce)
	assert.True(t, credentialsMatch(creds, "admin", resp, nonce, pluginLegacy))
}
