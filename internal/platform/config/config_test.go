// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/irongate/internal/platform/config"
)

/*
TestLoad_Defaults verifies the defaults applied when only the required
variables are set. Port stays a string so the listen address is assembled
by plain concatenation.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IAM_HOST", "iam.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "iam.example.com", cfg.Host)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "IAM", cfg.HeaderPrefix)
	assert.False(t, cfg.TLSEnabled())
	assert.True(t, cfg.IsDevelopment())
}

/*
TestLoad_Validation verifies the cross-field rules: Host is required, the
store selector is closed, postgres needs a DSN, and TLS material comes in
pairs.
*/
func TestLoad_Validation(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("IAM_HOST", "iam.example.com")
		t.Setenv("IAM_STORE", "etcd")

		_, err := config.Load()
		assert.ErrorContains(t, err, "IAM_STORE")
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("IAM_HOST", "iam.example.com")
		t.Setenv("IAM_STORE", config.StorePostgres)

		_, err := config.Load()
		assert.ErrorContains(t, err, "IAM_DATABASE_URL")
	})

	t.Run("tls cert without key", func(t *testing.T) {
		t.Setenv("IAM_HOST", "iam.example.com")
		t.Setenv("IAM_TLS_CERT", "/etc/irongate/tls.crt")

		_, err := config.Load()
		assert.ErrorContains(t, err, "IAM_TLS_KEY")
	})
}
