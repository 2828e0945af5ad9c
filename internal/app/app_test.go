package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimeeting/unimeetbot/core/database"
	"github.com/unimeeting/unimeetbot/internal/config"
	"github.com/unimeeting/unimeetbot/internal/storage"
)

func TestSeedAdminsIsRepeatable(t *testing.T) {
	cfg := database.Config{
		Driver:        database.DriverSQLite,
		URL:           filepath.Join(t.TempDir(), "app.db"),
		MigrationsDir: "../../migrations",
	}
	require.NoError(t, database.RunMigrations(cfg))
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seed := seedAdmins([]int64{7, 3})
	ctx := context.Background()
	require.NoError(t, seed(ctx, db))
	require.NoError(t, seed(ctx, db))

	admins, err := storage.New(db).ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	for _, a := range admins {
		assert.True(t, a.IsSuperAdmin)
	}
}

func TestOpenSessionsRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	defer mr.Close()

	a := &App{cfg: &config.Config{Session: config.SessionConfig{
		Backend:  config.SessionRedis,
		RedisURL: "redis://" + mr.Addr() + "/0",
		TTL:      time.Hour,
	}}}
	t.Cleanup(func() { _ = a.Close() })

	store, err := a.openSessions(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a.rdb)
	require.NoError(t, store.SetState(context.Background(), 5, "reg:major"))
	assert.NotEmpty(t, mr.Keys())
}

func TestOpenSessionsDefaultsToMemory(t *testing.T) {
	a := &App{cfg: &config.Config{}}
	store, err := a.openSessions(context.Background())
	require.NoError(t, err)
	assert.Nil(t, a.rdb)
	require.NoError(t, store.SetAdminMode(context.Background(), 5, true))
}
