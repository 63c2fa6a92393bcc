package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lunavps/auth-service/sessions"
	"github.com/lunavps/auth-service/sessions/sqlite"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newSession(id, userID, refreshToken string) *sessions.Session {
	return &sessions.Session{
		ID:           id,
		UserID:       userID,
		RefreshToken: refreshToken,
		CreatedAt:    testNow,
		ExpiresAt:    testNow.Add(7 * 24 * time.Hour),
	}
}

func TestUpsertAndGetByRefreshToken(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	session := newSession("", "user-1", "token-1")
	require.NoError(t, store.Upsert(ctx, session))
	require.NotEmpty(t, session.ID) // assigned on insert

	got, err := store.GetByRefreshToken(ctx, "token-1")
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, session.CreatedAt, got.CreatedAt)
	require.Equal(t, session.ExpiresAt, got.ExpiresAt)
}

func TestGetByRefreshTokenNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetByRefreshToken(context.Background(), "missing")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestRefreshTokenUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, newSession("session-1", "user-1", "token-1")))

	// A second live session may not carry the same refresh-token value.
	err := store.Upsert(ctx, newSession("session-2", "user-2", "token-1"))
	require.ErrorIs(t, err, sessions.ErrDuplicateRefreshToken)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, newSession("session-1", "user-1", "token-1")))
	require.NoError(t, store.Delete(ctx, "session-1"))
	require.NoError(t, store.Delete(ctx, "session-1"))

	_, err := store.GetByRefreshToken(ctx, "token-1")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestDeleteAllForUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, newSession("session-1", "user-1", "token-1")))
	require.NoError(t, store.Upsert(ctx, newSession("session-2", "user-1", "token-2")))
	require.NoError(t, store.Upsert(ctx, newSession("session-3", "user-2", "token-3")))

	require.NoError(t, store.DeleteAllForUser(ctx, "user-1"))

	_, err := store.GetByRefreshToken(ctx, "token-1")
	require.ErrorIs(t, err, sessions.ErrNotFound)
	_, err = store.GetByRefreshToken(ctx, "token-2")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	// The other user's session survives.
	_, err = store.GetByRefreshToken(ctx, "token-3")
	require.NoError(t, err)
}

func TestRotate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := newSession("session-1", "user-1", "token-1")
	require.NoError(t, store.Upsert(ctx, old))

	next := newSession("", "user-1", "token-2")
	require.NoError(t, store.Rotate(ctx, old, next))
	require.NotEmpty(t, next.ID)

	// Old token is gone, new token resolves.
	_, err := store.GetByRefreshToken(ctx, "token-1")
	require.ErrorIs(t, err, sessions.ErrNotFound)
	got, err := store.GetByRefreshToken(ctx, "token-2")
	require.NoError(t, err)
	require.Equal(t, next.ID, got.ID)
}

func TestRotateConsumedSessionFails(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := newSession("session-1", "user-1", "token-1")
	require.NoError(t, store.Upsert(ctx, old))
	require.NoError(t, store.Rotate(ctx, old, newSession("", "user-1", "token-2")))

	// A second rotation of the already-consumed session must not commit and
	// must not persist its replacement row.
	err := store.Rotate(ctx, old, newSession("", "user-1", "token-3"))
	require.ErrorIs(t, err, sessions.ErrNotFound)

	_, err = store.GetByRefreshToken(ctx, "token-3")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestDeleteExpired(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stale := newSession("session-1", "user-1", "token-1")
	stale.ExpiresAt = testNow.Add(-time.Hour)
	require.NoError(t, store.Upsert(ctx, stale))
	require.NoError(t, store.Upsert(ctx, newSession("session-2", "user-1", "token-2")))

	deleted, err := store.DeleteExpired(ctx, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	_, err = store.GetByRefreshToken(ctx, "token-1")
	require.ErrorIs(t, err, sessions.ErrNotFound)
	_, err = store.GetByRefreshToken(ctx, "token-2")
	require.NoError(t, err)
}
