package service

import (
	"context"
	"testing"
	"time"

	"github.com/egx/identity/internal/identity/domain"
	"github.com/egx/identity/internal/identity/store"
	"github.com/egx/identity/internal/identity/store/drivers/sqlite"
	"github.com/egx/identity/pkg/cryptox"
	"github.com/egx/identity/pkg/idx"
	"github.com/egx/identity/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// fakeProvider keeps users in memory so credential failure paths can be
// exercised without hashing real passwords.
type fakeProvider struct {
	byEmail   map[string]domain.User
	byID      map[string]domain.User
	passwords map[string]string
	roles     map[string][]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		byEmail:   map[string]domain.User{},
		byID:      map[string]domain.User{},
		passwords: map[string]string{},
		roles:     map[string][]string{},
	}
}

func (f *fakeProvider) add(email, password string, roles ...string) domain.User {
	u := domain.User{
		ID:           idx.New().String(),
		Username:     email,
		Email:        email,
		FirstName:    "Fake",
		PasswordHash: "checked-by-the-fake-not-the-store",
	}
	f.byEmail[email] = u
	f.byID[u.ID] = u
	f.passwords[u.ID] = password
	f.roles[u.ID] = roles
	return u
}

func (f *fakeProvider) FindByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeProvider) FindByID(_ context.Context, userID string) (domain.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeProvider) CheckPassword(user domain.User, password string) error {
	if f.passwords[user.ID] != password {
		return cryptox.ErrPasswordMismatch
	}
	return nil
}

func (f *fakeProvider) ListRoleNamesForUser(_ context.Context, userID string) ([]string, error) {
	return f.roles[userID], nil
}

type identityFixture struct {
	svc      *IdentityService
	provider *fakeProvider
	store    store.Store
	verifier *jwtx.Verifier
	clock    *time.Time
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	cfg := jwtx.Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "identity-test",
		Audience:   "identity-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	signer, err := jwtx.NewSigner(cfg)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifier(cfg)
	require.NoError(t, err)

	now := time.Now().UTC()
	provider := newFakeProvider()
	return &identityFixture{
		svc: &IdentityService{
			Provider: provider,
			Store:    st,
			Signer:   signer,
			Now:      func() time.Time { return now },
		},
		provider: provider,
		store:    st,
		verifier: verifier,
		clock:    &now,
	}
}

func (f *identityFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

// addUser registers a user with both the fake provider and the backing
// store; sessions reference users by foreign key, so the row must exist
// before any login can persist a pair.
func (f *identityFixture) addUser(t *testing.T, email, password string, roles ...string) domain.User {
	t.Helper()

	u := f.provider.add(email, password, roles...)
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newIdentityFixture(t)
		_, err := f.svc.Login(ctx, "x@x.com", "whatever")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newIdentityFixture(t)
		f.addUser(t, "ada@example.com", "correct horse")
		_, err := f.svc.Login(ctx, "ada@example.com", "battery staple")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("mints a linked pair", func(t *testing.T) {
		f := newIdentityFixture(t)
		u := f.addUser(t, "ada@example.com", "correct horse", domain.RoleStandardUser)

		pair, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)
		require.NotEmpty(t, pair.JwtToken)
		require.NotEmpty(t, pair.RefreshToken)

		claims, err := f.verifier.Verify(pair.JwtToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)
		require.Equal(t, []string{domain.RoleStandardUser}, claims.Roles)

		stored, err := f.store.Sessions().GetLive(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, stored.Linked())
		require.Equal(t, claims.ID, stored.Refresh.JwtID)
		require.Equal(t, pair.JwtToken, stored.Access.Value)
		require.Equal(t, pair.RefreshToken, stored.Refresh.Value)
	})

	t.Run("empty role table falls back to Administrator", func(t *testing.T) {
		f := newIdentityFixture(t)
		f.addUser(t, "ada@example.com", "correct horse")

		pair, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)

		claims, err := f.verifier.Verify(pair.JwtToken)
		require.NoError(t, err)
		require.Equal(t, []string{jwtx.DefaultRole}, claims.Roles)
	})

	t.Run("repeat login reuses the live pair", func(t *testing.T) {
		f := newIdentityFixture(t)
		f.addUser(t, "ada@example.com", "correct horse")

		first, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)

		second, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("dead refresh forces a new pair even while access is alive", func(t *testing.T) {
		f := newIdentityFixture(t)
		u := f.addUser(t, "ada@example.com", "correct horse")

		first, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)

		// Burn the stored refresh token while the access token still has
		// most of its lifetime left.
		stored, err := f.store.Sessions().GetLive(ctx, u.ID)
		require.NoError(t, err)
		stored.Refresh.Used = true
		require.NoError(t, f.store.Sessions().Replace(ctx, stored))

		second, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)
		require.NotEqual(t, first.JwtToken, second.JwtToken)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	})

	t.Run("login after access expiry mints a fresh pair", func(t *testing.T) {
		f := newIdentityFixture(t)
		u := f.addUser(t, "ada@example.com", "correct horse")

		first, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)

		f.advance(16 * time.Minute)

		second, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)
		require.NotEqual(t, first.JwtToken, second.JwtToken)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// Only the new pair is on record.
		stored, err := f.store.Sessions().GetLive(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, second.JwtToken, stored.Access.Value)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, f *identityFixture) domain.TokenPair {
		t.Helper()
		f.addUser(t, "ada@example.com", "correct horse", domain.RoleStandardUser)
		pair, err := f.svc.Login(ctx, "ada@example.com", "correct horse")
		require.NoError(t, err)
		return pair
	}

	t.Run("rotates both tokens", func(t *testing.T) {
		f := newIdentityFixture(t)
		pair := login(t, f)

		next, err := f.svc.Refresh(ctx, pair.JwtToken, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, pair.JwtToken, next.JwtToken)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		claims, err := f.verifier.Verify(next.JwtToken)
		require.NoError(t, err)
		stored, err := f.store.Sessions().GetByAccessToken(ctx, next.JwtToken)
		require.NoError(t, err)
		require.Equal(t, claims.ID, stored.Refresh.JwtID)
	})

	t.Run("consumed pair cannot be replayed", func(t *testing.T) {
		f := newIdentityFixture(t)
		pair := login(t, f)

		_, err := f.svc.Refresh(ctx, pair.JwtToken, pair.RefreshToken)
		require.NoError(t, err)

		// The old access token no longer resolves any session.
		_, err = f.svc.Refresh(ctx, pair.JwtToken, pair.RefreshToken)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown access token", func(t *testing.T) {
		f := newIdentityFixture(t)
		login(t, f)
		_, err := f.svc.Refresh(ctx, "not-a-stored-token", "whatever")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("mismatched refresh token", func(t *testing.T) {
		f := newIdentityFixture(t)
		pair := login(t, f)
		_, err := f.svc.Refresh(ctx, pair.JwtToken, "some-other-refresh")
		require.ErrorIs(t, err, ErrPairMismatch)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f := newIdentityFixture(t)
		pair := login(t, f)

		f.advance(25 * time.Hour)

		_, err := f.svc.Refresh(ctx, pair.JwtToken, pair.RefreshToken)
		require.ErrorIs(t, err, ErrRefreshExpiredOrUsed)
	})

	t.Run("used refresh token", func(t *testing.T) {
		f := newIdentityFixture(t)
		pair := login(t, f)

		stored, err := f.store.Sessions().GetByAccessToken(ctx, pair.JwtToken)
		require.NoError(t, err)
		stored.Refresh.Used = true
		require.NoError(t, f.store.Sessions().Replace(ctx, stored))

		// Still within its lifetime, but spent.
		_, err = f.svc.Refresh(ctx, pair.JwtToken, pair.RefreshToken)
		require.ErrorIs(t, err, ErrRefreshExpiredOrUsed)
	})

	t.Run("concurrent rotation loses to the winner", func(t *testing.T) {
		f := newIdentityFixture(t)
		pair := login(t, f)

		stored, err := f.store.Sessions().GetByAccessToken(ctx, pair.JwtToken)
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, pair.JwtToken, pair.RefreshToken)
		require.NoError(t, err)

		// A second writer still holding the old session state fails its
		// conditional replace.
		stale := stored
		stale.Access.JwtID = "stale-jti"
		stale.Refresh.JwtID = "stale-jti"
		err = f.store.Sessions().ReplaceIfRefreshMatches(ctx, stale, pair.RefreshToken)
		require.ErrorIs(t, err, store.ErrConflict)
	})
}
