// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package vault_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/constants"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/vault"
)

func newTestVault(t *testing.T, dir, passphrase string) *vault.Vault {
	t.Helper()

	v, err := vault.New(vault.Options{
		SaltPath:    filepath.Join(dir, "security.salt"),
		SecretsPath: filepath.Join(dir, "config.encrypted"),
		Passphrase:  passphrase,
		Logger:      slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return v
}

func TestNewRequiresPassphrase(t *testing.T) {
	_, err := vault.New(vault.Options{
		SaltPath:    filepath.Join(t.TempDir(), "security.salt"),
		SecretsPath: filepath.Join(t.TempDir(), "config.encrypted"),
	})
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t, t.TempDir(), "correct horse battery staple")

	ciphertext, err := v.Encrypt([]byte("top secret"))
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "top secret")

	plaintext, err := v.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), plaintext)

	// Fresh randomness per token: same plaintext, different ciphertext.
	other, err := v.Encrypt([]byte("top secret"))
	require.NoError(t, err)
	assert.NotEqual(t, ciphertext, other)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	v := newTestVault(t, t.TempDir(), "passphrase")

	ciphertext, err := v.Encrypt([]byte("payload"))
	require.NoError(t, err)

	// Flip one character in the middle of the token.
	tampered := []byte(ciphertext)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	_, err = v.Decrypt(string(tampered))
	assert.ErrorIs(t, err, vault.ErrIntegrity)
}

func TestDecryptWithWrongPassphrase(t *testing.T) {
	dir := t.TempDir()

	ciphertext, err := newTestVault(t, dir, "first passphrase").Encrypt([]byte("payload"))
	require.NoError(t, err)

	// Same salt file, different passphrase: a different key entirely.
	_, err = newTestVault(t, dir, "second passphrase").Decrypt(ciphertext)
	assert.ErrorIs(t, err, vault.ErrIntegrity)
}

func TestSaltPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	ciphertext, err := newTestVault(t, dir, "passphrase").Encrypt([]byte("durable"))
	require.NoError(t, err)

	// Re-opening with the same passphrase derives the same key.
	plaintext, err := newTestVault(t, dir, "passphrase").Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), plaintext)

	// Distinct installations get distinct salts and incompatible keys.
	_, err = newTestVault(t, t.TempDir(), "passphrase").Decrypt(ciphertext)
	assert.ErrorIs(t, err, vault.ErrIntegrity)
}

func TestCorruptSaltFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "security.salt"), []byte("short"), 0o600))

	_, err := vault.New(vault.Options{
		SaltPath:    filepath.Join(dir, "security.salt"),
		SecretsPath: filepath.Join(dir, "config.encrypted"),
		Passphrase:  "passphrase",
		Logger:      slog.New(slog.DiscardHandler),
	})
	assert.Error(t, err)
}

func TestNamedSecrets(t *testing.T) {
	dir := t.TempDir()
	v := newTestVault(t, dir, "passphrase")

	_, err := v.GetSecret("db_password")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	require.NoError(t, v.SetSecret("db_password", "hunter2"))
	require.NoError(t, v.SetSecret("webhook_token", "tok"))

	value, err := v.GetSecret("db_password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	names, err := v.Secrets()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"db_password", "webhook_token"}, names)

	// Secrets survive a re-open, and the file on disk is opaque.
	raw, err := os.ReadFile(filepath.Join(dir, "config.encrypted"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")

	value, err = newTestVault(t, dir, "passphrase").GetSecret("db_password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	require.NoError(t, v.DeleteSecret("db_password"))
	require.NoError(t, v.DeleteSecret("db_password"), "deleting twice is a no-op")
	_, err = v.GetSecret("db_password")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestAPIKeyResolution(t *testing.T) {
	t.Run("vault entry wins over environment", func(t *testing.T) {
		v := newTestVault(t, t.TempDir(), "passphrase")
		require.NoError(t, v.SetSecret("api_key", "vault-key"))
		t.Setenv(constants.APIKeyEnvVar, "env-key")

		key, err := v.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "vault-key", key)
	})

	t.Run("environment fallback is captured into the vault", func(t *testing.T) {
		v := newTestVault(t, t.TempDir(), "passphrase")
		t.Setenv(constants.APIKeyEnvVar, "env-key")

		key, err := v.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "env-key", key)

		// Captured: subsequent lookups no longer need the environment.
		t.Setenv(constants.APIKeyEnvVar, "")
		key, err = v.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "env-key", key)
	})

	t.Run("no source at all", func(t *testing.T) {
		v := newTestVault(t, t.TempDir(), "passphrase")
		t.Setenv(constants.APIKeyEnvVar, "")

		_, err := v.APIKey()
		assert.ErrorIs(t, err, vault.ErrNoAPIKey)
	})
}

func TestDegradedOnUnwritableSaltPath(t *testing.T) {
	dir := t.TempDir()
	// A salt path inside a missing directory cannot be written.
	v, err := vault.New(vault.Options{
		SaltPath:    filepath.Join(dir, "missing", "security.salt"),
		SecretsPath: filepath.Join(dir, "config.encrypted"),
		Passphrase:  "passphrase",
		Logger:      slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	assert.True(t, v.Degraded())

	// Crypto still works for the lifetime of the process.
	ciphertext, err := v.Encrypt([]byte("volatile"))
	require.NoError(t, err)
	plaintext, err := v.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("volatile"), plaintext)
}
