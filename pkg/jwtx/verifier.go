package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
	ErrAudience   = errors.New("jwtx: audience mismatch")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrNotYet     = errors.New("jwtx: token not yet valid")
)

// TokenVerifier validates a compact token and returns the claims if it is
// legit. The http middleware and the auth flows both consume this.
type TokenVerifier interface {
	Verify(token string) (Claims, error)
}

// Verifier checks HS256 signatures plus issuer, audience, and lifetime.
type Verifier struct {
	cfg Config
}

// NewVerifier validates the configuration and returns a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify parses and validates token. Every failure mode (malformed input,
// wrong algorithm, bad signature, wrong issuer or audience, expired or not
// yet valid) comes back as an error; callers that only need a yes/no fold
// the error to false.
func (v *Verifier) Verify(token string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) {
			return v.cfg.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudience
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYet
	default:
		return err
	}
}
