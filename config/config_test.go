package config

import (
	"errors"
	"testing"

	"github.com/mstgnz/flatsql/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RequiresDocument(t *testing.T) {
	_, err := Parse([]string{})
	assert.True(t, errors.Is(err, ErrMissingDocument))
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]string{"-doc", "db.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "db.yaml", cfg.DocumentPath)
	assert.Equal(t, ":5432", cfg.PgAddr)
	assert.Equal(t, ":3306", cfg.MysqlAddr)
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.False(t, cfg.HotReload)
	assert.Equal(t, logger.INFO, cfg.LogLevel)
	assert.Equal(t, logger.TEXT, cfg.LogFormat)
	assert.True(t, cfg.Anonymous())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]string{
		"-doc", "db.yaml",
		"-pg-addr", ":15432",
		"-mysql-addr", "",
		"-username", "admin",
		"-password", "secret",
		"-max-connections", "25",
		"-hot-reload",
		"-verbose",
		"-json-logs",
	})
	require.NoError(t, err)

	assert.Equal(t, ":15432", cfg.PgAddr)
	assert.Equal(t, "", cfg.MysqlAddr)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 25, cfg.MaxConnections)
	assert.True(t, cfg.HotReload)
	assert.Equal(t, logger.DEBUG, cfg.LogLevel)
	assert.Equal(t, logger.JSON, cfg.LogFormat)
	assert.False(t, cfg.Anonymous())
}

func TestAnonymous_PartialCredentials(t *testing.T) {
	cfg, err := Parse([]string{"-doc", "db.yaml", "-username", "admin"})
	require.NoError(t, err)
	assert.False(t, cfg.Anonymous())
}
