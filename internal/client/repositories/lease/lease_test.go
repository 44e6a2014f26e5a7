package lease

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE sync_lease (name TEXT PRIMARY KEY, holder TEXT NOT NULL, expires_at INTEGER NOT NULL);`)
	require.NoError(t, err)
	return db
}

func TestTryAcquire(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	ttl := time.Minute

	ok, err := r.TryAcquire(ctx, "sync", "A", now, ttl)
	require.NoError(t, err)
	require.True(t, ok, "free lease must be taken")

	ok, err = r.TryAcquire(ctx, "sync", "B", now.Add(10*time.Second), ttl)
	require.NoError(t, err)
	require.False(t, ok, "held lease must not be stolen")

	ok, err = r.TryAcquire(ctx, "sync", "A", now.Add(20*time.Second), ttl)
	require.NoError(t, err)
	require.True(t, ok, "holder may renew")

	ok, err = r.TryAcquire(ctx, "sync", "B", now.Add(2*time.Minute), ttl)
	require.NoError(t, err)
	require.True(t, ok, "expired lease may be taken over")
}

func TestRelease_OnlyByHolder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	ok, err := r.TryAcquire(ctx, "sync", "A", now, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.Release(ctx, "sync", "B"))
	ok, err = r.TryAcquire(ctx, "sync", "B", now, time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "release by a stranger must not free the lease")

	require.NoError(t, r.Release(ctx, "sync", "A"))
	ok, err = r.TryAcquire(ctx, "sync", "B", now, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}
