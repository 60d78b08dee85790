package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/egx/identity/internal/identity/domain"
	"github.com/egx/identity/internal/identity/store"
	"github.com/egx/identity/pkg/cryptox"
	"github.com/egx/identity/pkg/idx"
	"github.com/egx/identity/pkg/slogx"
)

var (
	ErrInvalidRegistration = errors.New("invalid_registration")
	ErrEmailTaken          = errors.New("email_taken")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// IdentityProvider is the slice of user management the token orchestrator
// needs. UserService is the production implementation; tests substitute a
// fake to exercise failure paths without a database.
type IdentityProvider interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, userID string) (domain.User, error)
	CheckPassword(user domain.User, password string) error
	ListRoleNamesForUser(ctx context.Context, userID string) ([]string, error)
}

type UserService struct {
	Store store.Store
}

// FindByEmail fetches a user by email address.
func (s *UserService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID fetches a user by id.
func (s *UserService) FindByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// CheckPassword verifies a cleartext password against the user's stored hash.
func (s *UserService) CheckPassword(user domain.User, password string) error {
	return cryptox.VerifyPassword(password, user.PasswordHash)
}

// ListRoleNamesForUser returns the names of every role granted to the user.
func (s *UserService) ListRoleNamesForUser(ctx context.Context, userID string) ([]string, error) {
	return s.Store.Users().ListRoleNamesForUser(ctx, userID)
}

// RegisterParams carries the fields accepted at account creation.
type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (p *RegisterParams) normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
}

func (p RegisterParams) validate() error {
	if p.Username == "" || p.Email == "" {
		return ErrInvalidRegistration
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return ErrInvalidRegistration
	}
	if len(p.Password) < MinPasswordLength {
		return ErrInvalidRegistration
	}
	return nil
}

// Register creates a new account and grants it the StandardUser role.
// User creation and the role grant commit together or not at all.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (domain.User, error) {
	l := slogx.FromContext(ctx)

	params.normalize()
	if err := params.validate(); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(params.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		role, err := tx.Roles().GetRoleByName(ctx, domain.RoleStandardUser)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// No role table entries yet; the claims builder falls
				// back to Administrator in that case.
				return nil
			}
			return err
		}
		return tx.Users().AddUserToRole(ctx, user.ID, role.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	l.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}
