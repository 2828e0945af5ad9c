package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdmins(t *testing.T) {
	ids, handles, err := ParseAdmins([]string{"123, @Alice", " ", "456,@BOB"})
	require.NoError(t, err)
	assert.Equal(t, []int64{123, 456}, ids)
	assert.Equal(t, []string{"alice", "bob"}, handles)

	_, _, err = ParseAdmins([]string{"abc"})
	assert.Error(t, err)
	_, _, err = ParseAdmins([]string{"@"})
	assert.Error(t, err)
}

func TestLoadDefaultsAndYAML(t *testing.T) {
	for _, k := range []string{"BOT_TOKEN", "DB_DRIVER", "DATABASE_URL", "ADMIN_IDS", "SESSION_BACKEND", "NAME_MIN_LENGTH", "AGE_MIN"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "123:abc"
database:
  driver: sqlite3
  url: bot.db
admins: ["42", "@Root"]
limits:
  name_max: 60
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, SessionMemory, cfg.Session.Backend)
	assert.Equal(t, []int64{42}, cfg.AdminIDs)
	assert.Equal(t, []string{"root"}, cfg.AdminHandles)
	assert.Equal(t, 60, cfg.Limits.NameMax)
	assert.Equal(t, 2, cfg.Limits.NameMin)
	assert.Equal(t, 16, cfg.Limits.AgeMin)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "1:env")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("ADMIN_IDS", "7,@Ops")
	t.Setenv("AGE_MIN", "18")
	t.Setenv("SESSION_BACKEND", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, cfg.AdminIDs)
	assert.Equal(t, []string{"ops"}, cfg.AdminHandles)
	assert.Equal(t, 18, cfg.Limits.AgeMin)
	assert.Equal(t, 30, cfg.Limits.AgeMax)
}

func TestNormalizeRejectsBadSections(t *testing.T) {
	base := func() *Config {
		c := &Config{Limits: DefaultLimits()}
		c.Telegram.Token = "x"
		c.Database.Driver = "sqlite3"
		c.Database.URL = ":memory:"
		return c
	}

	c := base()
	c.Limits.MajorMin = 200
	assert.ErrorContains(t, Normalize(c), "major")

	c = base()
	c.Session.Backend = "redis"
	assert.ErrorContains(t, Normalize(c), "redis_url")

	c = base()
	c.Session.Backend = "etcd"
	assert.Error(t, Normalize(c))

	require.NoError(t, Normalize(base()))
}

func TestLoadToolsSkipsToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "tools.db")

	cfg, err := LoadTools(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
