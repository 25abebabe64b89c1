// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (store, vault) via constructors.
  - Fail Closed: The vault passphrase has no default. A process without
    VAULT_PASSPHRASE refuses to start rather than silently encrypting
    secrets under a well-known constant.
*/
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the credential service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// DataDir is the directory holding the user registry and vault files.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// RegistryFile is the durable user registry (users + sessions).
	// Defaults to <DataDir>/users.json.
	RegistryFile string `env:"REGISTRY_FILE"`

	// VaultPassphrase is the passphrase the vault key is derived from.
	// Required: there is deliberately no fallback constant.
	VaultPassphrase string `env:"VAULT_PASSPHRASE,required"`

	// VaultSaltFile is the persisted 32-byte vault key salt.
	// Defaults to <DataDir>/security.salt.
	VaultSaltFile string `env:"VAULT_SALT_FILE"`

	// VaultSecretsFile is the encrypted secrets blob.
	// Defaults to <DataDir>/config.encrypted.
	VaultSecretsFile string `env:"VAULT_SECRETS_FILE"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and fills in the
// derived file-path defaults.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// File locations default to well-known names inside DataDir.
	if cfg.RegistryFile == "" {
		cfg.RegistryFile = filepath.Join(cfg.DataDir, constants.RegistryFileName)
	}
	if cfg.VaultSaltFile == "" {
		cfg.VaultSaltFile = filepath.Join(cfg.DataDir, constants.VaultSaltFileName)
	}
	if cfg.VaultSecretsFile == "" {
		cfg.VaultSecretsFile = filepath.Join(cfg.DataDir, constants.VaultSecretsFileName)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
