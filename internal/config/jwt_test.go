package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig_DefaultValues(t *testing.T) {
	t.Setenv(EnvJWTSecret, "test-secret-key")
	t.Setenv(EnvJWTExpiration, "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-secret-key", cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours, "should use default expiration of 24 hours")
	assert.True(t, JWTEnabled())
}

func TestNewJWTConfig_CustomExpiration(t *testing.T) {
	t.Setenv(EnvJWTSecret, "test-secret-key")
	t.Setenv(EnvJWTExpiration, "48")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.ExpirationHours)
}

func TestNewJWTConfig_MissingSecret(t *testing.T) {
	t.Setenv(EnvJWTSecret, "")

	cfg, err := NewJWTConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), EnvJWTSecret)
	assert.False(t, JWTEnabled())
}

func TestNewJWTConfig_InvalidExpiration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"non-numeric", "abc", "invalid JWT_EXPIRATION_HOURS"},
		{"zero", "0", "at least 1 hour"},
		{"negative", "-5", "at least 1 hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvJWTSecret, "test-secret-key")
			t.Setenv(EnvJWTExpiration, tt.value)

			cfg, err := NewJWTConfig()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
