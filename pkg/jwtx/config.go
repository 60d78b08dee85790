package jwtx

import (
	"errors"
	"fmt"
	"time"
)

// Default token TTLs. Short-lived access tokens, longer-lived refresh
// tokens; both can be overridden per-service via configuration.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// MinSecretLength is the minimum HMAC secret size we accept. HS256
	// secrets shorter than the hash output weaken the MAC.
	MinSecretLength = 32
)

var (
	ErrMissingSecret = errors.New("jwtx: signing secret is not configured")
	ErrShortSecret   = errors.New("jwtx: signing secret is too short")
	ErrMissingIssuer = errors.New("jwtx: issuer is not configured")
)

// Config carries the symmetric signing material and token parameters.
// It is constructed once at process start and treated as immutable;
// there is no ambient or hot-reloadable signing state.
type Config struct {
	Secret     []byte        // HMAC-SHA256 key
	Issuer     string        // iss claim, enforced on verification
	Audience   string        // aud claim, enforced on verification
	AccessTTL  time.Duration // access token lifetime
	RefreshTTL time.Duration // refresh token lifetime
}

// Validate reports configuration errors. A failure here is fatal at
// startup, never a per-request condition.
func (c Config) Validate() error {
	if len(c.Secret) == 0 {
		return ErrMissingSecret
	}
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("%w: got %d bytes, want at least %d", ErrShortSecret, len(c.Secret), MinSecretLength)
	}
	if c.Issuer == "" {
		return ErrMissingIssuer
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("jwtx: token TTLs must be positive")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTokenTTL
	}
	return c
}
