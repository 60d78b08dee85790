package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/egx/identity/internal/identity/domain"
	"github.com/egx/identity/internal/identity/store"
	"github.com/egx/identity/pkg/cryptox"
	"github.com/egx/identity/pkg/jwtx"
	"github.com/egx/identity/pkg/slogx"
)

var (
	ErrUserNotFound         = errors.New("user_not_found")
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrRefreshExpiredOrUsed = errors.New("refresh_token_expired_or_used")
	ErrPairMismatch         = errors.New("token_pair_mismatch")
)

// IdentityService owns the token lifecycle: authenticating a login,
// rotating a token pair on refresh, and keeping at most one active
// session per user at all times.
type IdentityService struct {
	Provider IdentityProvider
	Store    store.Store
	Signer   *jwtx.Signer

	// Now is the clock; tests pin it. Nil means time.Now.
	Now func() time.Time
}

func (s *IdentityService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Login authenticates an email/password pair. If the user already holds
// a session whose access and refresh tokens are both still alive, that
// pair is returned unchanged; otherwise a fresh pair is minted and the
// previous session, live or dead, is replaced in one step.
func (s *IdentityService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	user, err := s.Provider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}

	if err := s.Provider.CheckPassword(user, password); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login rejected", slog.String("user_id", user.ID))
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	alive, err := s.Store.Sessions().HasAliveAccessToken(ctx, user.ID, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if alive {
		current, err := s.Store.Sessions().GetLive(ctx, user.ID)
		switch {
		case err == nil:
			if current.Refresh.Alive(now) {
				l.Debug("login reused live session", slog.String("user_id", user.ID))
				return pairOf(current), nil
			}
		case !errors.Is(err, store.ErrNotFound):
			return domain.TokenPair{}, err
		}
	}

	session, err := s.mint(ctx, user, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.Store.Sessions().Replace(ctx, session); err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("login issued new session",
		slog.String("user_id", user.ID),
		slog.String("jwt_id", session.Access.JwtID),
	)
	return pairOf(session), nil
}

// Refresh rotates a token pair. The presented access token resolves the
// session; the presented pair must match the stored pair exactly, and the
// stored refresh token must be neither used nor expired. The rotation is
// conditional on the stored refresh value, so of two concurrent refreshes
// with the same pair exactly one succeeds.
func (s *IdentityService) Refresh(ctx context.Context, accessValue, refreshValue string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	session, err := s.Store.Sessions().GetByAccessToken(ctx, accessValue)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}

	if !session.Refresh.Alive(now) {
		l.Info("refresh rejected: token used or expired",
			slog.String("user_id", session.UserID))
		return domain.TokenPair{}, ErrRefreshExpiredOrUsed
	}

	if !session.Matches(accessValue, refreshValue) {
		l.Info("refresh rejected: presented pair does not match stored pair",
			slog.String("user_id", session.UserID))
		return domain.TokenPair{}, ErrPairMismatch
	}

	user, err := s.Provider.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}

	next, err := s.mint(ctx, user, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.Sessions().ReplaceIfRefreshMatches(ctx, next, refreshValue)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Another refresh won the race; this pair is spent.
			return domain.TokenPair{}, ErrRefreshExpiredOrUsed
		}
		return domain.TokenPair{}, err
	}

	l.Info("refresh rotated session",
		slog.String("user_id", session.UserID),
		slog.String("jwt_id", next.Access.JwtID),
	)
	return pairOf(next), nil
}

// mint issues a linked access/refresh pair for the user. The refresh
// token carries the access token's jwt id so the pair can be checked for
// linkage later.
func (s *IdentityService) mint(ctx context.Context, user domain.User, now time.Time) (domain.Session, error) {
	roleNames, err := s.Provider.ListRoleNamesForUser(ctx, user.ID)
	if err != nil {
		return domain.Session{}, err
	}

	token, jti, expiresAt, err := s.Signer.IssueAccessToken(
		user.ID, user.DisplayName(), user.Email, user.Username, roleNames, now)
	if err != nil {
		return domain.Session{}, err
	}

	refreshValue, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		UserID: user.ID,
		Access: domain.AccessToken{
			JwtID:     jti,
			Value:     token,
			IssuedAt:  now,
			ExpiresAt: expiresAt,
		},
		Refresh: domain.RefreshToken{
			Value:     refreshValue,
			JwtID:     jti,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.Signer.RefreshTTL()),
		},
		UpdatedAt: now,
	}, nil
}

func pairOf(s domain.Session) domain.TokenPair {
	return domain.TokenPair{
		JwtToken:     s.Access.Value,
		RefreshToken: s.Refresh.Value,
		ExpiresAt:    s.Access.ExpiresAt,
	}
}
