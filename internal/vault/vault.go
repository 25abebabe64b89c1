// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

// Package vault provides authenticated encryption for application secrets.
//
// A single symmetric key is derived from an operator passphrase with
// PBKDF2-HMAC-SHA256 over a per-installation salt persisted next to the
// data files. Ciphertexts are Fernet tokens, so every decrypt verifies an
// HMAC before any plaintext is produced: a tampered or wrong-key token
// fails closed with [ErrIntegrity].
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/constants"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/sec"
)

// # Errors

var (
	// ErrIntegrity indicates a ciphertext that failed authentication: it was
	// tampered with, truncated, or encrypted under a different key.
	ErrIntegrity = errors.New("vault: ciphertext failed integrity check")

	// ErrNoAPIKey indicates that no API key is available from the vault or
	// the environment.
	ErrNoAPIKey = errors.New("vault: no API key configured")

	// ErrNotFound indicates the named secret does not exist.
	ErrNotFound = errors.New("vault: secret not found")
)

// saltSize is the length in bytes of the persisted key-derivation salt.
const saltSize = 32

// # Vault

// Options configures a [Vault].
type Options struct {
	// SaltPath is where the key-derivation salt lives on disk.
	SaltPath string

	// SecretsPath is where the encrypted secrets document lives on disk.
	SecretsPath string

	// Passphrase is the operator-supplied master passphrase. Required; the
	// vault refuses to start without one.
	Passphrase string

	Logger *slog.Logger
}

// Vault encrypts and decrypts secrets under a passphrase-derived key and
// maintains an encrypted named-secret document on disk.
type Vault struct {
	key         *fernet.Key
	secretsPath string
	log         *slog.Logger

	// degraded is set when the salt or a captured secret could not be
	// persisted: the vault still works for this process, but its state is
	// not guaranteed to survive a restart. Surfaced through the readiness
	// probe.
	degraded bool

	mu sync.Mutex // guards the secrets document on disk
}

/*
New opens the vault: it loads or creates the salt, derives the encryption
key, and is then ready to encrypt and decrypt.

An empty passphrase is a hard error. There is no built-in fallback secret:
a vault encrypted under a known default would protect nothing.
*/
func New(opts Options) (*Vault, error) {
	if opts.Passphrase == "" {
		return nil, errors.New("vault: passphrase is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	v := &Vault{
		secretsPath: opts.SecretsPath,
		log:         opts.Logger,
	}

	salt, err := v.loadOrCreateSalt(opts.SaltPath)
	if err != nil {
		return nil, err
	}

	key, err := deriveKey(opts.Passphrase, salt)
	if err != nil {
		return nil, err
	}
	v.key = key

	return v, nil
}

/*
loadOrCreateSalt reads the persisted salt, generating and writing a new one
on first run.

A salt file of the wrong size is corrupt and fatal: deriving from it would
produce a key that silently cannot decrypt the existing secrets. A write
failure on first run is survivable — the vault falls back to an ephemeral
in-memory salt and marks itself degraded, so encryption still works for the
lifetime of the process.
*/
func (v *Vault) loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltSize {
			return nil, fmt.Errorf("vault: salt file %s is corrupt: got %d bytes, want %d",
				path, len(salt), saltSize)
		}
		return salt, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		v.log.Warn("salt_file_unreadable_using_ephemeral_salt",
			slog.String("path", path),
			slog.Any("error", err),
		)
		v.degraded = true
		return randomSalt()
	}

	salt, err = randomSalt()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, salt, 0o600); err != nil {
		v.log.Warn("salt_file_unwritable_using_ephemeral_salt",
			slog.String("path", path),
			slog.Any("error", err),
		)
		v.degraded = true
		return salt, nil
	}

	v.log.Info("vault_salt_created", slog.String("path", path))
	return salt, nil
}

func randomSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vault: failed to generate salt: %w", err)
	}
	return salt, nil
}

// deriveKey stretches the passphrase into a Fernet key with the same KDF
// parameters the credential store uses for passwords.
func deriveKey(passphrase string, salt []byte) (*fernet.Key, error) {
	raw := pbkdf2.Key([]byte(passphrase), salt, sec.KDFIterations, 32, sha256.New)

	key, err := fernet.DecodeKey(base64.URLEncoding.EncodeToString(raw))
	if err != nil {
		return nil, fmt.Errorf("vault: failed to derive key: %w", err)
	}
	return key, nil
}

// Degraded reports whether the vault has lost durability: it is running on
// an ephemeral salt, or a secret it should have persisted could not be
// written. Either way, state encrypted now may not survive a restart.
func (v *Vault) Degraded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.degraded
}

func (v *Vault) markDegraded() {
	v.mu.Lock()
	v.degraded = true
	v.mu.Unlock()
}

// # Encrypt / Decrypt

// Encrypt seals plaintext into an authenticated token. Distinct calls with
// identical plaintext produce distinct ciphertexts.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	token, err := fernet.EncryptAndSign(plaintext, v.key)
	if err != nil {
		return "", fmt.Errorf("vault: encrypt failed: %w", err)
	}
	return string(token), nil
}

// Decrypt verifies and opens a token produced by [Vault.Encrypt]. Any
// authentication failure, regardless of cause, is reported as
// [ErrIntegrity]; the error never distinguishes tampering from a wrong key.
func (v *Vault) Decrypt(token string) ([]byte, error) {
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{v.key})
	if plaintext == nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// # Named Secrets

/*
SetSecret stores a named secret in the encrypted document.

The whole document is decrypted, updated, re-encrypted, and rewritten on
every call; the secret set is expected to stay small (API keys, webhook
tokens).
*/
func (v *Vault) SetSecret(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readSecretsLocked()
	if err != nil {
		return err
	}

	secrets[name] = value
	return v.writeSecretsLocked(secrets)
}

// GetSecret returns the named secret, or [ErrNotFound].
func (v *Vault) GetSecret(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readSecretsLocked()
	if err != nil {
		return "", err
	}

	value, ok := secrets[name]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// DeleteSecret removes the named secret. Deleting an absent name is a no-op.
func (v *Vault) DeleteSecret(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readSecretsLocked()
	if err != nil {
		return err
	}

	if _, ok := secrets[name]; !ok {
		return nil
	}

	delete(secrets, name)
	return v.writeSecretsLocked(secrets)
}

// Secrets lists the stored secret names. Values are never listed.
func (v *Vault) Secrets() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readSecretsLocked()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	return names, nil
}

func (v *Vault) readSecretsLocked() (map[string]string, error) {
	data, err := os.ReadFile(v.secretsPath)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("vault: failed to read secrets file: %w", err)
	}

	plaintext, err := v.Decrypt(string(data))
	if err != nil {
		return nil, err
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("vault: failed to parse secrets document: %w", err)
	}
	return secrets, nil
}

func (v *Vault) writeSecretsLocked(secrets map[string]string) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("vault: failed to encode secrets document: %w", err)
	}

	ciphertext, err := v.Encrypt(plaintext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(v.secretsPath, []byte(ciphertext), 0o600); err != nil {
		return fmt.Errorf("vault: failed to write secrets file: %w", err)
	}
	return nil
}

// # API Key Resolution

// apiKeySecretName is the vault entry that holds the upstream AI API key.
const apiKeySecretName = "api_key"

/*
APIKey resolves the upstream API key.

Description: The encrypted vault entry wins; the environment variable is
the fallback. A key found only in the environment is captured into the
vault so later runs no longer depend on the environment — a capture failure
downgrades to a warning, the key itself is still returned.

Returns:
  - string: The API key
  - error: [ErrNoAPIKey] when neither source has one
*/
func (v *Vault) APIKey() (string, error) {
	key, err := v.GetSecret(apiKeySecretName)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	key = os.Getenv(constants.APIKeyEnvVar)
	if key == "" {
		return "", ErrNoAPIKey
	}

	if err := v.SetSecret(apiKeySecretName, key); err != nil {
		v.log.Warn("api_key_capture_failed", slog.Any("error", err))
		v.markDegraded()
	}
	return key, nil
}
