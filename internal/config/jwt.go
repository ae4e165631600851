package config

import (
	"fmt"
	"os"
	"strconv"
)

// JWT environment variables
const (
	EnvJWTSecret     = "API_JWT_SECRET"
	EnvJWTExpiration = "JWT_EXPIRATION_HOURS"
)

// JWTConfig holds configuration for API bearer token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWTEnabled reports whether bearer-token auth is configured for the API.
func JWTEnabled() bool {
	return os.Getenv(EnvJWTSecret) != ""
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads API_JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv(EnvJWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("%s is required but not set", EnvJWTSecret)
	}

	expirationStr := os.Getenv(EnvJWTExpiration)
	if expirationStr == "" {
		expirationStr = "24" // default
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvJWTExpiration, err)
	}

	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("%s cannot be empty", EnvJWTSecret)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%s must be at least 1 hour, got: %d", EnvJWTExpiration, c.ExpirationHours)
	}
	return nil
}
