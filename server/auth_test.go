package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/flatsql/sqltypes"
)

func TestResolve_CLIOnly(t *testing.T) {
	db := sqltypes.NewDatabase("test", nil)
	c := Resolve("admin", "secret", db)
	assert.Equal(t, Credentials{Username: "admin", Password: "secret"}, c)
}

func TestResolve_DocumentOverridesCLI(t *testing.T) {
	db := sqltypes.NewDatabaseWithAuth("test", "docuser", "docpass", nil)
	c := Resolve("admin", "secret", db)
	assert.Equal(t, Credentials{Username: "docuser", Password: "docpass"}, c)
}

func TestResolve_PartialDocumentOverride(t *testing.T) {
	db := sqltypes.NewDatabaseWithAuth("test", "docuser", "", nil)
	c := Resolve("admin", "secret", db)
	assert.Equal(t, "docuser", c.Username)
	assert.Equal(t, "secret", c.Password)
}

func TestCredentials_Anonymous(t *testing.T) {
	assert.True(t, Credentials{}.Anonymous())
	assert.False(t, Credentials{Username: "a"}.Anonymous())
}

func TestCredentials_Accepts_Anonymous(t *testing.T) {
	c := Credentials{}
	assert.True(t, c.Accepts("anyone", "anything"))
}

func TestCredentials_Accepts_Configured(t *testing.T) {
	c := Credentials{Username: "admin", Password: "secret"}
	assert.True(t, c.Accepts("admin", "secret"))
	assert.False(t, c.Accepts("admin", "wrong"))
	assert.False(t, c.Accepts("other", "secret"))
}
