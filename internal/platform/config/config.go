// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

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
  - DI-Friendly: Passed to core components (store, server) via constructors.
  - Zero Hidden State: No global variables are used to store config.

All variables share the IAM_ prefix so the service can coexist with other
Twelve-Factor processes on the same machine.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is the shared prefix for every environment variable.
const EnvPrefix = "IAM_"

// Store backend selectors for the IAM_STORE variable.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// # Configuration Schema

// Config holds all runtime configuration for the Irongate IAM server.
type Config struct {

	// Server identity and listen settings. Host is the hostname requests
	// must be signed for (canonical string host check); Port is the TCP
	// listen port.
	Host        string `env:"HOST,required"`
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`

	// TLS material. The server listens with TLS iff both paths are set.
	TLSCert string `env:"TLS_CERT"`
	TLSKey  string `env:"TLS_KEY"`

	// SessionTTL is the idle lifetime of a session; refresh extends it.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// HeaderPrefix names the signed request headers, e.g. X-IAM-User-Id.
	HeaderPrefix string `env:"HEADER_PREFIX" envDefault:"IAM"`

	// Store selects the storage backend: "memory" or "postgres".
	Store string `env:"STORE" envDefault:"memory"`

	// Relational database, required only when Store == "postgres".
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// RedisURL enables the Redis-backed replay cache when set. When empty,
	// an in-process bounded cache is used instead.
	RedisURL string `env:"REDIS_URL"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Cross-field validation that struct tags cannot express.
	if cfg.Store != StoreMemory && cfg.Store != StorePostgres {
		return nil, fmt.Errorf("config: %sSTORE must be %q or %q, got %q", EnvPrefix, StoreMemory, StorePostgres, cfg.Store)
	}
	if cfg.Store == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: %sDATABASE_URL is required when %sSTORE=%s", EnvPrefix, EnvPrefix, StorePostgres)
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("config: %sTLS_CERT and %sTLS_KEY must be set together", EnvPrefix, EnvPrefix)
	}

	return cfg, nil
}

// TLSEnabled reports whether the server should terminate TLS itself.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
