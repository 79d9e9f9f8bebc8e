// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load(fakeEnv(nil))
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(fakeEnv(map[string]string{"PROXY_SECRET": "shh"}))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, "minio", cfg.ObjectStoreHost)
	assert.Equal(t, 9000, cfg.ObjectStorePort)
	assert.True(t, cfg.ObjectStoreSSLEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DebugSession)
	assert.Len(t, cfg.AllowedMethods, 7)
	for _, m := range []string{"GET", "PUT", "DELETE", "POST", "OPTIONS", "HEAD", "PATCH"} {
		_, ok := cfg.AllowedMethods[m]
		assert.True(t, ok, "expected %s in default allowed methods", m)
	}
	assert.Equal(t, 10*time.Second, cfg.GracefulShutdownTimeout)
}

func TestLoadOverridesAllowedMethods(t *testing.T) {
	cfg, err := Load(fakeEnv(map[string]string{
		"PROXY_SECRET":          "shh",
		"PROXY_ALLOWED_METHODS": "GET,PUT",
	}))
	require.NoError(t, err)

	assert.Len(t, cfg.AllowedMethods, 2)
	_, ok := cfg.AllowedMethods["POST"]
	assert.False(t, ok)
}

func TestLoadRejectsNonIntPort(t *testing.T) {
	_, err := Load(fakeEnv(map[string]string{
		"PROXY_SECRET":           "shh",
		"PROXY_OBJECT_STORE_PORT": "not-a-number",
	}))
	require.Error(t, err)
}
