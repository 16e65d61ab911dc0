package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/repo"
)

// Minimal schema so the test can run on a fresh DB/volume.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS traps (
	  trap_id          TEXT PRIMARY KEY,
	  name             TEXT NOT NULL,
	  hammer_down      BOOLEAN NOT NULL,
	  battery_level    DOUBLE PRECISION NOT NULL,
	  resident_numbers TEXT[] NOT NULL DEFAULT '{}',
	  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS registered_users (
	  phone_number TEXT PRIMARY KEY,
	  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`TRUNCATE traps, registered_users`,
}

func ensureSchema(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	for _, stmt := range schemaSQL {
		_, err = pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestStore_TrapLifecycle(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	ensureSchema(t, dsn)

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	// absent
	rec, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Nil(t, rec)

	// implicit create with defaults
	hd, bl := true, 75.0
	require.NoError(t, store.Upsert(ctx, "t1", repo.TrapUpdate{HammerDown: &hd, BatteryLevel: &bl}))
	rec, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "Unnamed", rec.Name)
	require.True(t, rec.HammerDown)
	require.Equal(t, 75.0, rec.BatteryLevel)

	// partial update: battery only
	bl2 := 40.0
	require.NoError(t, store.Upsert(ctx, "t1", repo.TrapUpdate{BatteryLevel: &bl2}))
	rec, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	require.True(t, rec.HammerDown, "omitted field must keep prior value")
	require.Equal(t, 40.0, rec.BatteryLevel)

	// meta
	require.NoError(t, store.SetMeta(ctx, "t1", "Kitchen", []string{"+15551234567"}))
	rec, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Kitchen", rec.Name)
	require.Equal(t, []string{"+15551234567"}, rec.ResidentNumbers)

	traps, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, traps, 1)
}

func TestStore_Registrations(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	ensureSchema(t, dsn)

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	ok, err := store.IsRegistered(ctx, "+15550001111")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Register(ctx, "+15550001111"))
	// duplicate register is a no-op at the store layer
	require.NoError(t, store.Register(ctx, "+15550001111"))

	ok, err = store.IsRegistered(ctx, "+15550001111")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Unregister(ctx, "+15550001111"))
	ok, err = store.IsRegistered(ctx, "+15550001111")
	require.NoError(t, err)
	require.False(t, ok)
}
