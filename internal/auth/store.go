// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserStore defines the data access contract for user accounts.
//
// Implementations must return cloned entities (never internal pointers) and
// must make every mutation durable before returning success, rolling back
// in-memory state when the durable write fails.
type UserStore interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or storage retrieval failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username
		(case-sensitive exact match).
	*/
	FindByUsername(ctx context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given email
		(case-sensitive exact match).
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		FindByIdentifier returns the account whose username OR email equals
		the identifier. Uniqueness of both fields guarantees at most one match.
	*/
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)

	/*
		Create persists a brand-new user account.

		Uniqueness of username and email is enforced here, under the store's
		write lock, as the authoritative check.

		Returns:
		  - error: ErrDuplicateUsername, ErrDuplicateEmail, or storage failures
	*/
	Create(ctx context.Context, user *User) error

	/*
		Update persists changes to mutable fields (profile, last login,
		active flag). Identity fields must still be unique.
	*/
	Update(ctx context.Context, user *User) error

	/*
		UpdatePassword atomically replaces the user's password hash and salt
		and bumps updated_at.
	*/
	UpdatePassword(ctx context.Context, userID, newHash, newSalt string) error

	/*
		SetActive flips the account's is_active flag.
	*/
	SetActive(ctx context.Context, userID string, active bool) error
}

// # Session Data Access

// SessionStore defines the data access contract for the token → user map.
//
// The Session Manager is the exclusive owner of this map; no other component
// may mutate it.
type SessionStore interface {

	/*
		Put inserts a session keyed by its token.
	*/
	Put(ctx context.Context, session *Session) error

	/*
		Get returns the session for the given token, or ErrSessionNotFound.
		Expiry is NOT checked here; that is the Session Manager's call.
	*/
	Get(ctx context.Context, token string) (*Session, error)

	/*
		Delete removes the session and reports whether it existed.
	*/
	Delete(ctx context.Context, token string) (bool, error)

	/*
		DeleteForUser removes every session bound to the user and returns the
		number removed. Used for the deactivation cascade.
	*/
	DeleteForUser(ctx context.Context, userID string) (int, error)

	/*
		DeleteExpired removes every session whose expiry is at or before now
		(zero-expiry records count as expired) and returns the number removed.
	*/
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	/*
		Count returns the number of live sessions.
	*/
	Count(ctx context.Context) (int, error)
}
