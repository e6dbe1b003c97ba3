// Package jwt verifies bearer tokens for the transcription endpoints.
//
// Tokens carry standard registered claims plus an optional "scope". With an
// HMAC method the service can also issue tokens, which the CLI uses to mint
// credentials for clients.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/whisper-srt/errors"
)

// Claims are the claims accepted on requests.
type Claims struct {
	gojwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Service verifies and issues tokens.
type Service struct {
	cfg    Config
	key    any
	parser *gojwt.Parser
	now    func() time.Time
}

// NewService validates cfg and loads the verification key.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	key, err := cfg.verifyKey()
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(cfg.Audience))
	}
	return &Service{cfg: cfg, key: key, parser: gojwt.NewParser(opts...), now: time.Now}, nil
}

// Parse verifies token and returns its claims. Failures are
// *apperrors.AppError values: TOKEN_EXPIRED for stale tokens and
// INVALID_TOKEN otherwise.
func (s *Service) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired().WithCause(err)
		}
		return nil, apperrors.InvalidToken().WithCause(err)
	}
	return claims, nil
}

// Validate returns the subject of a valid token, the shape the Auth
// middleware expects.
func (s *Service) Validate(token string) (string, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Issue signs a token for subject valid for TokenTTL. RS256 services hold
// only a public key and cannot issue.
func (s *Service) Issue(subject, scope string) (string, error) {
	if s.cfg.Method == RS256 {
		return "", errors.New("jwt: RS256 is verify-only")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		Scope: scope,
	}
	if s.cfg.Audience != "" {
		claims.Audience = gojwt.ClaimStrings{s.cfg.Audience}
	}
	signed, err := gojwt.NewWithClaims(s.cfg.signingMethod(), claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}
