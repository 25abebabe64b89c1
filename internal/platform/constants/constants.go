// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

/*
Package constants provides centralized, immutable values for the entire service.

It defines default timeouts, session lifetimes, and cross-cutting keys that are
shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Sessions: Token lifetime and expiry sweep cadence.
  - Vault: Default file names and the upstream API key environment variable.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "takashi-auth"
	AppVersion = "0.1.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Sessions

const (
	// SessionTTL is how long a session token remains valid after issuance.
	// There is no sliding window: resolving a session does not extend it.
	SessionTTL = 24 * time.Hour

	// SessionSweepInterval is how often the background sweep removes expired
	// sessions. Sessions also expire lazily on resolve, so the sweep only
	// bounds the size of the live map.
	SessionSweepInterval = 15 * time.Minute

	// SessionTokenLength is the byte length of the random session token.
	SessionTokenLength = 32
)

// # Vault

const (
	// APIKeyEnvVar is the environment variable holding the upstream API key.
	// The vault encrypts and persists its value on first sight.
	APIKeyEnvVar = "GOOGLE_API_KEY"

	// RegistryFileName is the default file name of the durable user registry.
	RegistryFileName = "users.json"

	// VaultSaltFileName is the default file name of the vault key salt.
	VaultSaltFileName = "security.salt"

	// VaultSecretsFileName is the default file name of the encrypted secrets blob.
	VaultSecretsFileName = "config.encrypted"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)
