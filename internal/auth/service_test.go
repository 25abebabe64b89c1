// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/auth"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/apperr"
)

func newTestService(t *testing.T) (*auth.Service, *auth.FileStore) {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	store, err := auth.NewFileStore(filepath.Join(t.TempDir(), "users.json"), log)
	require.NoError(t, err)

	sessions := auth.NewSessionManager(store, log)
	return auth.NewService(store, sessions, log), store
}

func register(t *testing.T, svc *auth.Service, username, email, password string) *auth.User {
	t.Helper()

	user, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    auth.RegisterInput
		wantErr  error
		wantCode string
	}{
		{
			name:    "username too short",
			input:   auth.RegisterInput{Username: "al", Email: "al@example.com", Password: "secret1"},
			wantErr: nil, // validation error, checked by code below
		},
		{
			name:    "password too short",
			input:   auth.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "12345"},
			wantErr: auth.ErrWeakPassword,
		},
		{
			name:    "email without at sign",
			input:   auth.RegisterInput{Username: "alice", Email: "alice.example.com", Password: "secret1"},
			wantErr: auth.ErrInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)

			_, err := svc.Register(context.Background(), tt.input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				appErr := apperr.As(err)
				require.NotNil(t, appErr)
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			}
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice", "alice@example.com", "secret1")

	_, err := svc.Register(ctx, auth.RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername)

	_, err = svc.Register(ctx, auth.RegisterInput{
		Username: "bob", Email: "alice@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestRegisterDefaultProfile(t *testing.T) {
	svc, _ := newTestService(t)

	user := register(t, svc, "alice", "alice@example.com", "secret1")

	assert.Equal(t, "alice", user.Profile["display_name"])
	prefs, ok := user.Profile["preferences"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "light", prefs["theme"])
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret1", user.PasswordHash)
}

func TestSaltUniquenessAcrossAccounts(t *testing.T) {
	svc, _ := newTestService(t)

	// Same password, distinct accounts: salts and hashes must differ.
	a := register(t, svc, "alice", "alice@example.com", "samepass")
	b := register(t, svc, "bob", "bob@example.com", "samepass")

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice", "alice@example.com", "secret1")

	t.Run("by username", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.LastLogin.IsZero())
	})

	t.Run("by email", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "alice@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password and unknown identifier are indistinguishable", func(t *testing.T) {
		_, errWrongPass := svc.Authenticate(ctx, "alice", "nope")
		_, errUnknown := svc.Authenticate(ctx, "mallory", "nope")

		assert.ErrorIs(t, errWrongPass, auth.ErrBadCredentials)
		assert.ErrorIs(t, errUnknown, auth.ErrBadCredentials)
		assert.Equal(t, errWrongPass.Error(), errUnknown.Error())
	})
}

func TestAuthenticateDeactivated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice", "alice@example.com", "secret1")
	require.NoError(t, svc.Deactivate(ctx, user.ID))

	_, err := svc.Authenticate(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, auth.ErrAccountDeactivated)

	// Even with the correct password, never the generic credentials error.
	assert.NotErrorIs(t, err, auth.ErrBadCredentials)
}

func TestLoginLogoutLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered := register(t, svc, "alice", "alice@example.com", "secret1")

	user, token, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, registered.ID, user.ID)

	resolved, err := svc.UserBySession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, resolved.ID)

	assert.True(t, svc.Logout(ctx, token))
	assert.False(t, svc.Logout(ctx, token), "second logout is a no-op")

	_, err = svc.UserBySession(ctx, token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice", "alice@example.com", "oldpass")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "nope", "newpass")
		assert.ErrorIs(t, err, auth.ErrCurrentPassword)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "oldpass", "short")
		assert.ErrorIs(t, err, auth.ErrWeakPassword)
	})

	t.Run("success rotates salt and hash", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "oldpass", "newpass"))

		updated, err := svc.User(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, user.Salt, updated.Salt)
		assert.NotEqual(t, user.PasswordHash, updated.PasswordHash)

		_, err = svc.Authenticate(ctx, "alice", "oldpass")
		assert.ErrorIs(t, err, auth.ErrBadCredentials)

		_, err = svc.Authenticate(ctx, "alice", "newpass")
		assert.NoError(t, err)
	})
}

func TestResetPasswordByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice", "alice@example.com", "oldpass")

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		assert.NoError(t, svc.ResetPasswordByEmail(ctx, "ghost@example.com", "newpass"))
	})

	t.Run("known email resets without current password", func(t *testing.T) {
		require.NoError(t, svc.ResetPasswordByEmail(ctx, "alice@example.com", "newpass"))

		_, err := svc.Authenticate(ctx, "alice", "newpass")
		assert.NoError(t, err)
	})
}

func TestDeactivateRevokesSessions(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice", "alice@example.com", "secret1")

	_, tokenA, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, tokenB, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, user.ID))

	_, errA := svc.UserBySession(ctx, tokenA)
	_, errB := svc.UserBySession(ctx, tokenB)
	assert.ErrorIs(t, errA, auth.ErrSessionNotFound)
	assert.ErrorIs(t, errB, auth.ErrSessionNotFound)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateProfileShallowMerge(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice", "alice@example.com", "secret1")

	updated, err := svc.UpdateProfile(ctx, user.ID, map[string]any{
		"bio":   "hello",
		"theme": "dark",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", updated.Profile["bio"])
	assert.Equal(t, "dark", updated.Profile["theme"])
	// Untouched keys survive the merge.
	assert.Equal(t, "alice", updated.Profile["display_name"])
}

func TestResolvePrincipal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice", "alice@example.com", "secret1")
	_, token, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	principal, err := svc.ResolvePrincipal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, token, principal.SessionToken)

	_, err = svc.ResolvePrincipal(ctx, "bogus")
	assert.Error(t, err)
}
