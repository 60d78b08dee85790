package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer issues HMAC-SHA256 signed access tokens in compact serialization.
type Signer struct {
	cfg Config
}

// NewSigner validates the configuration and returns a Signer. A missing or
// weak secret surfaces here, at construction time.
func NewSigner(cfg Config) (*Signer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Signer{cfg: cfg}, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *Signer) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *Signer) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

// IssueAccessToken builds identity claims for the user as of now and
// signs them. Returns the compact token, its jti, and the expiry instant.
// The caller supplies the clock so that token claims and any session
// state recorded alongside them agree on the issue time; the result is
// deterministic given the inputs except for the fresh jti.
func (s *Signer) IssueAccessToken(
	subject, name, email, username string,
	roleNames []string,
	now time.Time,
) (token string, jti string, expiresAt time.Time, err error) {
	now = now.UTC()
	claims := NewIdentityClaims(
		subject, name, email, username,
		roleNames,
		s.cfg.AccessTTL,
		s.cfg.Issuer, s.cfg.Audience,
		now,
	)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("jwtx: sign access token: %w", err)
	}

	return signed, claims.ID, claims.ExpiresAt.Time, nil
}
