package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentsh/docent/core/providers"
)

func newSQLiteStore(t *testing.T, maxAge time.Duration) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"), maxAge)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t, time.Hour)
	ctx := context.Background()

	sess := NewSession("s1")
	sess.Touch(
		providers.Message{Role: providers.RoleUser, Content: "how do I install?"},
		providers.Message{
			Role:    providers.RoleAssistant,
			Content: "checking",
			ToolCalls: []providers.ToolCall{
				{ID: "tu_1", Name: "search_docs", Arguments: `{"query":"install"}`},
			},
		},
	)
	require.NoError(t, store.Set(ctx, "s1", sess))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.MessageCount)
	assert.Equal(t, "search_docs", got.History[1].ToolCalls[0].Name)
}

func TestSQLiteStoreAbsent(t *testing.T) {
	store := newSQLiteStore(t, time.Hour)

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStoreLazyExpiry(t *testing.T) {
	store := newSQLiteStore(t, time.Minute)
	ctx := context.Background()

	sess := NewSession("s1")
	require.NoError(t, store.Set(ctx, "s1", sess))

	// Backdate the stored activity timestamp past the idle window.
	_, err := store.db.ExecContext(ctx,
		`UPDATE sessions SET last_active = ? WHERE id = ?`,
		time.Now().Add(-time.Minute-time.Millisecond).UnixMilli(), "s1")
	require.NoError(t, err)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newSQLiteStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", NewSession("s1")))
	require.NoError(t, store.Delete(ctx, "s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheStoreRoundTrip(t *testing.T) {
	store, err := NewCacheStore(time.Hour)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	sess := NewSession("s1")
	sess.Touch(providers.Message{Role: providers.RoleUser, Content: "hi"})
	require.NoError(t, store.Set(ctx, "s1", sess))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.MessageCount)

	require.NoError(t, store.Delete(ctx, "s1"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
