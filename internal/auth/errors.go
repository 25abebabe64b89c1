// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth

import "github.com/takashibox-dotcom/ai-takashi-web/internal/platform/apperr"

// Sentinel error values returned by the credential store. Callers match them
// with errors.Is; the HTTP layer serializes them through their apperr codes.
//
// Registration keeps distinct duplicate-username and duplicate-email errors —
// acceptable on signup, where the client just typed the value. The recovery
// path never exposes them: it answers identically whether or not the account
// exists.
var (
	// ErrDuplicateUsername: the username is already taken.
	ErrDuplicateUsername = apperr.Conflict("DUPLICATE_USERNAME", "Username is already taken")

	// ErrDuplicateEmail: the email is already registered.
	ErrDuplicateEmail = apperr.Conflict("DUPLICATE_EMAIL", "Email is already registered")

	// ErrWeakPassword: the password does not meet the minimum length.
	ErrWeakPassword = apperr.Invalid("WEAK_PASSWORD", "Password must be at least 6 characters")

	// ErrInvalidEmail: the email does not look like an address.
	ErrInvalidEmail = apperr.Invalid("INVALID_EMAIL", "A valid email address is required")

	// ErrBadCredentials is the single generic authentication failure. Unknown
	// identifiers and wrong passwords are indistinguishable by design.
	ErrBadCredentials = apperr.Unauthorized("Identifier or password incorrect")

	// ErrAccountDeactivated: the account exists but authentication is disabled.
	ErrAccountDeactivated = &apperr.AppError{
		Code:       "ACCOUNT_DEACTIVATED",
		Message:    "This account has been deactivated",
		HTTPStatus: 401,
	}

	// ErrCurrentPassword: change-password was given a wrong current password.
	ErrCurrentPassword = apperr.Unauthorized("Current password is incorrect")

	// ErrUserNotFound: lookup by ID missed.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrSessionNotFound: the session token does not resolve.
	ErrSessionNotFound = apperr.Unauthorized("Invalid or expired session")
)
