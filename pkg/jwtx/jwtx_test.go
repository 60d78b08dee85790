package jwtx

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Secret:     bytes.Repeat([]byte("k"), 32),
		Issuer:     "identity-test",
		Audience:   "identity-clients",
		AccessTTL:  10 * time.Minute,
		RefreshTTL: time.Hour,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, testConfig().Validate())
	})

	t.Run("rejects missing secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Secret = nil
		require.ErrorIs(t, cfg.Validate(), ErrMissingSecret)
	})

	t.Run("rejects short secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Secret = []byte("too-short")
		require.ErrorIs(t, cfg.Validate(), ErrShortSecret)
	})

	t.Run("rejects missing issuer", func(t *testing.T) {
		cfg := testConfig()
		cfg.Issuer = ""
		require.ErrorIs(t, cfg.Validate(), ErrMissingIssuer)
	})
}

func TestNewIdentityClaims(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("assembles the full claim set", func(t *testing.T) {
		c := NewIdentityClaims(
			"user-1", "Ada", "ada@example.com", "ada",
			[]string{"Moderator", "StandardUser"},
			15*time.Minute, "iss", "aud", now,
		)

		require.Equal(t, "user-1", c.Subject)
		require.Equal(t, "Ada", c.Name)
		require.Equal(t, "ada@example.com", c.Email)
		require.Equal(t, "ada", c.Username)
		require.Equal(t, []string{"Moderator", "StandardUser"}, c.Roles)
		require.Equal(t, now, c.NotBefore.Time)
		require.Equal(t, now.Add(15*time.Minute), c.ExpiresAt.Time)
		require.NotEmpty(t, c.ID)
	})

	t.Run("generates a fresh jti per call", func(t *testing.T) {
		a := NewIdentityClaims("u", "", "", "", nil, time.Minute, "iss", "aud", now)
		b := NewIdentityClaims("u", "", "", "", nil, time.Minute, "iss", "aud", now)
		require.NotEqual(t, a.ID, b.ID)
	})

	t.Run("empty role set falls back to the default role", func(t *testing.T) {
		c := NewIdentityClaims("u", "", "", "", nil, time.Minute, "iss", "aud", now)
		require.Equal(t, []string{DefaultRole}, c.Roles)
		require.True(t, c.HasRole(DefaultRole))
	})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testConfig())
	require.NoError(t, err)
	verifier, err := NewVerifier(testConfig())
	require.NoError(t, err)

	issuedAt := time.Now().UTC().Truncate(time.Second)
	token, jti, expiresAt, err := signer.IssueAccessToken(
		"user-9", "Grace", "grace@example.com", "grace",
		[]string{"StandardUser"}, issuedAt,
	)
	require.NoError(t, err)
	require.NotEmpty(t, jti)
	require.Equal(t, issuedAt.Add(10*time.Minute), expiresAt)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-9", claims.Subject)
	require.Equal(t, jti, claims.ID)
	require.Equal(t, []string{"StandardUser"}, claims.Roles)
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier(testConfig())
	require.NoError(t, err)

	sign := func(cfg Config, c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(cfg.Secret)
		require.NoError(t, err)
		return s
	}

	now := time.Now().UTC()

	t.Run("malformed token", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := testConfig()
		other.Secret = bytes.Repeat([]byte("x"), 32)
		token := sign(other, NewIdentityClaims("u", "", "", "", nil, time.Minute, "identity-test", "identity-clients", now))

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("expired regardless of valid signature", func(t *testing.T) {
		token := sign(testConfig(), NewIdentityClaims(
			"u", "", "", "", nil,
			time.Minute, "identity-test", "identity-clients",
			now.Add(-2*time.Hour),
		))

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		token := sign(testConfig(), NewIdentityClaims("u", "", "", "", nil, time.Minute, "someone-else", "identity-clients", now))

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		token := sign(testConfig(), NewIdentityClaims("u", "", "", "", nil, time.Minute, "identity-test", "other-aud", now))

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrAudience)
	})

	t.Run("not yet valid", func(t *testing.T) {
		token := sign(testConfig(), NewIdentityClaims("u", "", "", "", nil, time.Minute, "identity-test", "identity-clients", now.Add(time.Hour)))

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrNotYet)
	})
}
