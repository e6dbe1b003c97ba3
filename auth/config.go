// Package auth guards the transcription endpoints with bearer tokens,
// API keys or both. It is off unless auth.enabled is set.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kbukum/whisper-srt/auth/apikey"
	"github.com/kbukum/whisper-srt/auth/jwt"
	"github.com/kbukum/whisper-srt/server/middleware"
)

// Config holds authentication configuration. Sub-configs are optional so
// an unused mechanism carries no defaults or validation.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// JWT enables "Authorization: Bearer" tokens (nil if not used).
	JWT *jwt.Config `mapstructure:"jwt"`

	// APIKeys enables the X-API-Key header.
	APIKeys []apikey.Key `mapstructure:"api_keys"`

	// SkipPaths are path prefixes that never require credentials.
	SkipPaths []string `mapstructure:"skip_paths"`
}

// ApplyDefaults sets defaults for non-nil sub-configurations.
func (c *Config) ApplyDefaults() {
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
}

// Validate checks the enabled mechanisms.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWT == nil && len(c.APIKeys) == 0 {
		return errors.New("auth: enabled without jwt or api_keys")
	}
	if c.JWT != nil {
		if err := c.JWT.Validate(); err != nil {
			return fmt.Errorf("auth.jwt: %w", err)
		}
	}
	return nil
}

// Describe returns a one-liner for the startup summary, e.g.
// "JWT(HS256) api_keys=2".
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	var parts []string
	if c.JWT != nil {
		parts = append(parts, fmt.Sprintf("JWT(%s)", c.JWT.Method))
	}
	if n := len(c.APIKeys); n > 0 {
		parts = append(parts, fmt.Sprintf("api_keys=%d", n))
	}
	return strings.Join(parts, " ")
}

// Middleware builds the HTTP middleware for the configured mechanisms, or
// returns nil when auth is disabled.
func Middleware(cfg Config) (middleware.Middleware, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mw := middleware.AuthConfig{SkipPaths: cfg.SkipPaths}
	if cfg.JWT != nil {
		svc, err := jwt.NewService(*cfg.JWT)
		if err != nil {
			return nil, err
		}
		mw.TokenValidator = svc.Validate
	}
	if len(cfg.APIKeys) > 0 {
		keys, err := apikey.NewStore(cfg.APIKeys)
		if err != nil {
			return nil, err
		}
		mw.KeyValidator = keys.Verify
	}
	return middleware.Auth(mw), nil
}
