package jwt

import (
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported JWT algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
	RS256 SigningMethod = "RS256"
)

// Config configures bearer token verification.
type Config struct {
	// Secret is the HMAC key for HS* methods.
	Secret string `mapstructure:"secret"`
	// PublicKeyFile is a PEM encoded RSA public key for RS256.
	PublicKeyFile string `mapstructure:"public_key_file"`
	// Method is the signing algorithm (default HS256).
	Method SigningMethod `mapstructure:"method"`
	// Issuer, when set, must match the "iss" claim.
	Issuer string `mapstructure:"issuer"`
	// Audience, when set, must appear in the "aud" claim.
	Audience string `mapstructure:"audience"`
	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration `mapstructure:"leeway"`
	// TokenTTL is the lifetime of tokens issued by Issue (default 1h).
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
}

// Validate checks that the key material matches the method.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
		if len(c.Secret) < 32 {
			return errors.New("secret must be at least 32 bytes for HMAC methods")
		}
	case RS256:
		if c.PublicKeyFile == "" {
			return errors.New("public_key_file is required for RS256")
		}
	default:
		return fmt.Errorf("unsupported signing method %q", c.Method)
	}
	if c.Leeway < 0 {
		return errors.New("leeway must not be negative")
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	case RS256:
		return gojwt.SigningMethodRS256
	default:
		return gojwt.SigningMethodHS256
	}
}

// verifyKey loads the key used to check signatures.
func (c *Config) verifyKey() (any, error) {
	if c.Method != RS256 {
		return []byte(c.Secret), nil
	}
	pem, err := os.ReadFile(c.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := gojwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}
