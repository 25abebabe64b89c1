// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/auth"
)

func newTestSessionManager(t *testing.T) (*auth.SessionManager, *auth.FileStore) {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	store, err := auth.NewFileStore(filepath.Join(t.TempDir(), "users.json"), log)
	require.NoError(t, err)

	return auth.NewSessionManager(store, log), store
}

func TestSessionCreateResolve(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	token, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok := mgr.Resolve(ctx, token)
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)

	// Tokens are unique per session.
	other, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestSessionResolveUnknownToken(t *testing.T) {
	mgr, _ := newTestSessionManager(t)

	_, ok := mgr.Resolve(context.Background(), "no-such-token")
	assert.False(t, ok)
}

func TestSessionRevoke(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	token, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, mgr.Revoke(ctx, token))
	assert.False(t, mgr.Revoke(ctx, token), "revoke is idempotent")

	_, ok := mgr.Resolve(ctx, token)
	assert.False(t, ok)
}

func TestSessionRevokeAll(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	tokenA, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	tokenB, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	tokenOther, err := mgr.Create(ctx, "user-2")
	require.NoError(t, err)

	revoked, err := mgr.RevokeAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	_, ok := mgr.Resolve(ctx, tokenA)
	assert.False(t, ok)
	_, ok = mgr.Resolve(ctx, tokenB)
	assert.False(t, ok)

	// Sessions of other users survive.
	userID, ok := mgr.Resolve(ctx, tokenOther)
	require.True(t, ok)
	assert.Equal(t, "user-2", userID)
}

func TestSessionLazyExpiry(t *testing.T) {
	mgr, store := newTestSessionManager(t)
	ctx := context.Background()

	// Plant an already expired session directly in the store.
	expired := &auth.Session{
		Token:     "stale-token",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	require.NoError(t, store.Put(ctx, expired))

	_, ok := mgr.Resolve(ctx, "stale-token")
	assert.False(t, ok, "expired sessions never resolve")

	// The lazy check also removed the record.
	_, err := store.Get(ctx, "stale-token")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestSessionSweep(t *testing.T) {
	mgr, store := newTestSessionManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)

	for _, token := range []string{"stale-1", "stale-2"} {
		require.NoError(t, store.Put(ctx, &auth.Session{
			Token:     token,
			UserID:    "user-1",
			CreatedAt: now.Add(-48 * time.Hour),
			ExpiresAt: now.Add(-time.Minute),
		}))
	}

	swept, err := mgr.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	_, ok := mgr.Resolve(ctx, live)
	assert.True(t, ok, "live sessions survive the sweep")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionZeroExpiryIsExpired(t *testing.T) {
	session := &auth.Session{Token: "t", UserID: "u"}
	assert.True(t, session.Expired(time.Now()))
}
