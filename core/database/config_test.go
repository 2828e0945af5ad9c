package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePostgresDefaults(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "unimeet"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.Equal(t, "postgres://bot:p%40ss@db:5432/unimeet?sslmode=disable", cfg.DSN())
	assert.Equal(t, cfg.DSN(), cfg.MigrateURL())
	assert.Equal(t, "db:5432/unimeet", cfg.Target())
	assert.Equal(t, "migrations/postgres", cfg.MigrationsPath())
}

func TestNormalizeURLWins(t *testing.T) {
	cfg := Config{URL: "postgres://u:secret@pg:5432/app?sslmode=require", Host: "ignored"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, cfg.URL, cfg.DSN())
	assert.Equal(t, "pg:5432/app", cfg.Target())
}

func TestNormalizeSQLite(t *testing.T) {
	cfg := Config{Driver: "sqlite", URL: "data/unimeet.db"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "data/unimeet.db?_foreign_keys=on", cfg.DSN())
	assert.Equal(t, "sqlite3://data/unimeet.db?_foreign_keys=on", cfg.MigrateURL())

	mem := Config{Driver: DriverSQLite, URL: "file::memory:?cache=shared"}
	require.NoError(t, mem.Normalize())
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", mem.DSN())
}

func TestNormalizeRejectsUnknownDriver(t *testing.T) {
	cfg := Config{Driver: "mysql", URL: "x"}
	require.ErrorContains(t, cfg.Normalize(), "unsupported driver")
	require.Error(t, (&Config{}).Normalize())
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_users.up.sql", "000002_admins.up.sql", "000003_events.up.sql"}
	assert.Equal(t, []string{"000002_admins.up.sql", "000003_events.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint(2), parseVersion("000002_admins.up.sql"))
}
