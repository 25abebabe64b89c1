// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and logic for
authentication, account lifecycle, and session issuance/expiry.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"maps"
	"time"
)

// # Domain Entities

// User represents a registered account.
//
// PasswordHash and Salt are persisted by the store but excluded from API
// JSON; the plaintext password is never stored anywhere, in any form.
type User struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"` // Explicitly omitted from JSON for security.
	Salt         string         `json:"-"` // Per-user KDF salt, rotated on every password change.
	Profile      map[string]any `json:"profile,omitempty"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLogin    time.Time      `json:"last_login"`
}

// Clone returns a deep copy of the user, including the profile map.
//
// The store hands out clones so callers can never mutate registry state
// without going through a store operation.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	copied := *u
	if u.Profile != nil {
		copied.Profile = maps.Clone(u.Profile)
	}
	return &copied
}

// Session represents an issued session token bound to a user.
//
// The token is opaque: expiry lives in ExpiresAt rather than being encoded
// into the token string. Sessions are terminal once revoked or expired.
type Session struct {
	Token     string    `json:"-"` // The bearer credential itself. Never serialized.
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its lifetime at the given
// instant. A zero expiry counts as expired.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || now.After(s.ExpiresAt)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldIdentifier      = "identifier"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldSessionToken    = "session_token"
	FieldUser            = "user"
	FieldMessage         = "message"
)
