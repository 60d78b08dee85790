package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAccessTokenAlive(t *testing.T) {
	t.Parallel()

	require.True(t, AccessToken{ExpiresAt: testNow.Add(time.Minute)}.Alive(testNow))
	require.False(t, AccessToken{ExpiresAt: testNow}.Alive(testNow))
	require.False(t, AccessToken{ExpiresAt: testNow.Add(-time.Minute)}.Alive(testNow))
}

func TestRefreshTokenAlive(t *testing.T) {
	t.Parallel()

	live := RefreshToken{ExpiresAt: testNow.Add(time.Hour)}
	require.True(t, live.Alive(testNow))

	t.Run("used tokens are dead even before expiry", func(t *testing.T) {
		used := live
		used.Used = true
		require.False(t, used.Alive(testNow))
	})

	t.Run("expired tokens are dead even when unused", func(t *testing.T) {
		expired := RefreshToken{ExpiresAt: testNow.Add(-time.Second)}
		require.False(t, expired.Alive(testNow))
	})

	t.Run("expiry instant itself is still alive", func(t *testing.T) {
		edge := RefreshToken{ExpiresAt: testNow}
		require.True(t, edge.Alive(testNow))
	})
}

func TestSessionMatches(t *testing.T) {
	t.Parallel()

	s := Session{
		UserID:  "user-1",
		Access:  AccessToken{JwtID: "jti-1", Value: "jwt-value"},
		Refresh: RefreshToken{JwtID: "jti-1", Value: "refresh-value"},
	}

	require.True(t, s.Matches("jwt-value", "refresh-value"))
	require.False(t, s.Matches("other-jwt", "refresh-value"))
	require.False(t, s.Matches("jwt-value", "other-refresh"))

	t.Run("broken jti linkage rejects even matching values", func(t *testing.T) {
		broken := s
		broken.Refresh.JwtID = "jti-2"
		require.False(t, broken.Matches("jwt-value", "refresh-value"))
		require.False(t, broken.Linked())
	})
}
