package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProducesValidULIDs(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	require.False(t, a.IsZero())
	require.False(t, b.IsZero())
	require.NotEqual(t, a, b)

	_, err := Parse(a.String())
	require.NoError(t, err)
}

func TestNewIsMonotonicWithinSameMillisecond(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewAt(at)
	b := NewAt(at)

	require.Less(t, a.String(), b.String())
}

func TestParseRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "not-a-ulid", "0000"} {
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrInvalid)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2023, 11, 20, 8, 30, 0, 0, time.UTC)
	id := NewAt(at)

	require.Equal(t, at.UnixMilli(), id.Time().UnixMilli())
	require.True(t, ID("").Time().IsZero())
}
