package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("produces url-safe base64 of the requested entropy", func(t *testing.T) {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, TokenSize256)
	})

	t.Run("successive tokens differ", func(t *testing.T) {
		a := MustGenerateToken(TokenSize256)
		b := MustGenerateToken(TokenSize256)
		require.NotEqual(t, a, b)
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)

		_, err = GenerateToken(-8)
		require.Error(t, err)
	})
}
