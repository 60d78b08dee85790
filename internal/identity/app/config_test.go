package app

import (
	"testing"
	"time"

	"github.com/egx/identity/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "identity", cfg.Issuer)
	require.Equal(t, cfg.Issuer, cfg.Audience)
	require.Equal(t, jwtx.DefaultAccessTokenTTL, cfg.AccessTTL)
	require.Equal(t, jwtx.DefaultRefreshTokenTTL, cfg.RefreshTTL)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "identity.db", cfg.DatabaseFile)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IDENTITY_ISSUER", "issuer-under-test")
	t.Setenv("IDENTITY_ACCESS_TTL", "30m")
	t.Setenv("HOUSEKEEPING_INTERVAL", "15") // bare integer means minutes
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()

	require.Equal(t, "issuer-under-test", cfg.Issuer)
	require.Equal(t, "issuer-under-test", cfg.Audience)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, 9090, cfg.Port)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		cfg := LoadConfig()
		cfg.JwtSecret = "0123456789abcdef0123456789abcdef"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("missing secret is fatal", func(t *testing.T) {
		cfg := base()
		cfg.JwtSecret = ""
		require.ErrorIs(t, cfg.Validate(), ErrMissingSecret)
	})

	t.Run("short secret is fatal", func(t *testing.T) {
		cfg := base()
		cfg.JwtSecret = "too-short"
		require.ErrorIs(t, cfg.Validate(), jwtx.ErrShortSecret)
	})
}
