// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/constants"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/sec"
)

// # Session Manager

// SessionManager exclusively owns the token → user mapping.
//
// # State Machine
//
// A session is Active from creation until it is Revoked (explicit logout or
// account deactivation) or Expired (past its TTL). Both transitions are
// terminal; a token never resurrects.
type SessionManager struct {
	sessions SessionStore
	ttl      time.Duration
	log      *slog.Logger
}

// NewSessionManager constructs a [SessionManager] over the given store with
// the standard 24-hour token lifetime.
func NewSessionManager(store SessionStore, log *slog.Logger) *SessionManager {
	return &SessionManager{
		sessions: store,
		ttl:      constants.SessionTTL,
		log:      log,
	}
}

/*
Create issues a fresh opaque session token for the user.

The token is 32 bytes of secure randomness (base64url); creation and expiry
instants are stored on the session record rather than encoded into the token.

Returns:
  - string: The bearer token
  - error: Token generation or persistence failures
*/
func (m *SessionManager) Create(ctx context.Context, userID string) (string, error) {
	token, err := sec.GenerateSecureToken(constants.SessionTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth: session token generation failed: %w", err)
	}

	now := time.Now().UTC()
	session := &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.sessions.Put(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

/*
Resolve maps a token back to its user ID.

Resolution never extends the session's lifetime. An expired session
resolves to nothing, exactly as an unknown token does, regardless of
whether the sweep has removed it yet.
*/
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, bool) {
	session, err := m.sessions.Get(ctx, token)
	if err != nil {
		return "", false
	}
	if session.Expired(time.Now().UTC()) {
		// Lazy cleanup: an expired token presented here is removed on the
		// spot rather than waiting for the next sweep.
		if _, err := m.sessions.Delete(ctx, token); err != nil {
			m.log.Warn("expired_session_cleanup_failed", slog.String("error", err.Error()))
		}
		return "", false
	}
	return session.UserID, true
}

/*
Revoke removes the session and reports whether it existed.

Revocation is idempotent: revoking an unknown or already-revoked token
simply returns false.
*/
func (m *SessionManager) Revoke(ctx context.Context, token string) bool {
	existed, err := m.sessions.Delete(ctx, token)
	if err != nil {
		m.log.Error("session_revoke_failed", slog.Any("error", err))
		return false
	}
	return existed
}

/*
RevokeAll removes every session bound to the user.

Called by the credential store on account deactivation so that no live
token outlives the account.
*/
func (m *SessionManager) RevokeAll(ctx context.Context, userID string) (int, error) {
	removed, err := m.sessions.DeleteForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.log.Info("sessions_revoked",
			slog.String("user_id", userID),
			slog.Int("count", removed),
		)
	}
	return removed, nil
}

/*
Sweep removes every session whose lifetime ended at or before now.

Runs once at startup and then periodically via [SessionManager.Run];
sessions also expire lazily in [SessionManager.Resolve], so the sweep only
bounds the size of the live map.
*/
func (m *SessionManager) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed, err := m.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.log.Info("expired_sessions_swept", slog.Int("count", removed))
	}
	return removed, nil
}

/*
Run sweeps expired sessions on a fixed interval until ctx is cancelled.

Intended to be launched as a goroutine from main.
*/
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.Sweep(ctx, time.Now().UTC()); err != nil {
				m.log.Error("session_sweep_failed", slog.Any("error", err))
			}
		case <-ctx.Done():
			return
		}
	}
}
