// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

/*
Package sec provides the cryptographic primitives for credential handling.

It isolates security-sensitive code (password KDF, token generation) from the
domain logic. Passwords are hashed with PBKDF2-HMAC-SHA256 over a per-user
random salt; verification recomputes the hash and compares in constant time.

# Review Process

This package is critical for security. Any changes to iteration counts, salt
handling, or comparison logic must be reviewed by the security team.
*/
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// # KDF Parameters

const (
	// KDFIterations is the PBKDF2 iteration count. Never lower this: existing
	// hashes record no iteration count and are verified with this value.
	KDFIterations = 100_000

	// kdfKeyLength is the derived hash length in bytes (SHA-256 output size).
	kdfKeyLength = 32

	// saltLength is the byte length of a per-user password salt.
	saltLength = 16
)

// # Password Hashing

// GenerateSalt returns a fresh hex-encoded random salt.
//
// A new salt is generated at account creation and again on every password
// change or reset. Salts are never reused across password generations.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives the hex-encoded password hash for (password, salt)
// using PBKDF2-HMAC-SHA256.
func HashPassword(password, salt string) string {
	derived := pbkdf2.Key([]byte(password), []byte(salt), KDFIterations, kdfKeyLength, sha256.New)
	return hex.EncodeToString(derived)
}

// VerifyPassword recomputes the hash for (password, salt) and compares it
// against wantHex in constant time.
func VerifyPassword(password, salt, wantHex string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(wantHex)) == 1
}

// # Opaque Tokens

// GenerateSecureToken returns a URL-safe token built from n bytes of
// cryptographically secure randomness.
//
// The token carries no embedded structure; expiry is tracked as an explicit
// field on the session record, not parsed out of the token string.
func GenerateSecureToken(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
