// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/sec"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/validate"
	"github.com/takashibox-dotcom/ai-takashi-web/pkg/uuid"
)

// # Validation Constraints

const (
	// MinUsernameLength is the minimum username length at registration.
	MinUsernameLength = 3

	// MinPasswordLength is the minimum password length, enforced at
	// registration and on every password change or reset.
	MinPasswordLength = 6
)

// # Service

// Service implements the credential store use cases and composes the
// [SessionManager] for login/logout flows.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	users    UserStore
	sessions *SessionManager
	log      *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users UserStore, sessions *SessionManager, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		log:      log,
	}
}

// Sessions exposes the session manager for callers that resolve tokens
// directly (the chat-routing layer).
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Enforces the registration rules (username ≥3 characters,
password ≥6 characters, email containing "@", username and email unique
case-sensitively), derives a fresh salt + PBKDF2 hash, and persists the
record with a default profile.

Returns:
  - *User: Created entity
  - error: ErrDuplicateUsername / ErrDuplicateEmail / ErrWeakPassword /
    ErrInvalidEmail, a VALIDATION_ERROR, or storage failures
*/
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	// Shape validation first: empty fields and the username minimum.
	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, MinUsernameLength).
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	// Named single-rule errors the client distinguishes for messaging.
	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if !strings.Contains(input.Email, "@") {
		return nil, ErrInvalidEmail
	}

	// Fresh salt per account; never reused, rotated on every password change.
	salt, err := sec.GenerateSalt()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: sec.HashPassword(input.Password, salt),
		Salt:         salt,
		Profile:      defaultProfile(input.Username),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store enforces uniqueness under its write lock and reports the
	// duplicate field, acceptable to reveal on the registration path.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// defaultProfile seeds the open key/value profile bag for a new account.
func defaultProfile(username string) map[string]any {
	return map[string]any{
		"display_name": username,
		"bio":          "",
		"avatar":       "",
		"preferences": map[string]any{
			"theme":         "light",
			"language":      "ja",
			"notifications": true,
		},
	}
}

// # Authentication Flow

/*
Authenticate verifies an identifier/password pair.

Description: The identifier matches against username OR email (exact,
case-sensitive; uniqueness guarantees at most one hit). Unknown identifiers
and wrong passwords fail with the same generic [ErrBadCredentials] so the
endpoint cannot be used to enumerate accounts. Deactivated accounts always
fail with [ErrAccountDeactivated]. The password check recomputes the PBKDF2
hash with the stored salt and compares in constant time.

On success last_login is updated and the full user record returned.
*/
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, ErrBadCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	if !sec.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, ErrBadCredentials
	}

	user.LastLogin = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("login_succeeded",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

/*
Login authenticates and, on success, issues a session token.

Returns:
  - *User: The authenticated account
  - string: The opaque session token
  - error: Authentication or persistence failures
*/
func (s *Service) Login(ctx context.Context, identifier, password string) (*User, string, error) {
	user, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

/*
Logout revokes the session token. Idempotent: reports whether the token
still existed.
*/
func (s *Service) Logout(ctx context.Context, token string) bool {
	return s.sessions.Revoke(ctx, token)
}

/*
UserBySession resolves a session token to the full user record.

A token bound to a deactivated account resolves to nothing and is revoked
on sight, closing the window between deactivation and the cascade revoke.
*/
func (s *Service) UserBySession(ctx context.Context, token string) (*User, error) {
	userID, ok := s.sessions.Resolve(ctx, token)
	if !ok {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if !user.IsActive {
		s.sessions.Revoke(ctx, token)
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// ResolvePrincipal adapts [Service.UserBySession] to the middleware's
// resolver contract.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (*sec.Principal, error) {
	user, err := s.UserBySession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &sec.Principal{
		UserID:       user.ID,
		Username:     user.Username,
		SessionToken: token,
	}, nil
}

// User returns the account with the given ID.
func (s *Service) User(ctx context.Context, userID string) (*User, error) {
	return s.users.FindByID(ctx, userID)
}

// # Password Lifecycle

/*
ChangePassword rotates a user's credentials after re-verifying the current
password.

A new salt is generated every time; a salt is never reused across password
generations.
*/
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing the change.
	if !sec.VerifyPassword(currentPassword, user.Salt, user.PasswordHash) {
		return ErrCurrentPassword
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	s.log.Info("password_changed", slog.String("user_id", user.ID))
	return nil
}

/*
ResetPassword unconditionally rotates a user's credentials.

Recovery path only: identity must already have been proven out-of-band
(e.g. email ownership). There is no current-password check.
*/
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	s.log.Info("password_reset", slog.String("user_id", userID))
	return nil
}

/*
ResetPasswordByEmail is the recovery entry point keyed by email.

It deliberately reports success for unknown emails: the reset path must not
confirm whether an address is registered.
*/
func (s *Service) ResetPasswordByEmail(ctx context.Context, email, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Indistinguishable from the success path by design.
			return nil
		}
		return err
	}

	return s.ResetPassword(ctx, user.ID, newPassword)
}

// setPassword validates the new password and persists a fresh salt + hash.
func (s *Service) setPassword(ctx context.Context, userID, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	salt, err := sec.GenerateSalt()
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, sec.HashPassword(newPassword, salt), salt)
}

// # Account Lifecycle

/*
Deactivate disables the account and revokes every live session bound to it.

Deactivation is a cross-component operation: the flag flips in the
credential store, then the Session Manager — the sole owner of the session
map — performs the cascade revoke.
*/
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return err
	}

	if _, err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}

	s.log.Info("account_deactivated", slog.String("user_id", userID))
	return nil
}

/*
UpdateProfile shallow-merges the patch into the user's profile bag.

New keys overwrite existing ones; keys absent from the patch are retained.
*/
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch map[string]any) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Profile == nil {
		user.Profile = make(map[string]any, len(patch))
	}
	for key, value := range patch {
		user.Profile[key] = value
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
