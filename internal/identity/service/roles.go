package service

import (
	"context"
	"errors"
	"strings"

	"github.com/egx/identity/internal/identity/domain"
	"github.com/egx/identity/internal/identity/store"
	"github.com/egx/identity/pkg/idx"
)

var (
	ErrRoleNotFound    = errors.New("role_not_found")
	ErrRoleNameTaken   = errors.New("role_name_taken")
	ErrInvalidRoleName = errors.New("invalid_role_name")
)

type RolesService struct {
	Store store.Store
}

// ListRoles returns every role, ordered by name.
func (s *RolesService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

// GetRole fetches a single role by id.
func (s *RolesService) GetRole(ctx context.Context, roleID string) (domain.Role, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, roleID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Role{}, ErrRoleNotFound
	}
	return role, err
}

// CreateRole adds a new role with the given name.
func (s *RolesService) CreateRole(ctx context.Context, name string) (domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Role{}, ErrInvalidRoleName
	}

	role := domain.Role{ID: idx.New().String(), Name: name}
	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrRoleNameTaken
		}
		return domain.Role{}, err
	}
	return role, nil
}

// RenameRole changes a role's name, keeping its id and memberships.
func (s *RolesService) RenameRole(ctx context.Context, roleID, name string) (domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Role{}, ErrInvalidRoleName
	}

	if err := s.Store.Roles().UpdateRoleName(ctx, roleID, name); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domain.Role{}, ErrRoleNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			return domain.Role{}, ErrRoleNameTaken
		}
		return domain.Role{}, err
	}
	return domain.Role{ID: roleID, Name: name}, nil
}

// DeleteRole removes a role; memberships cascade away with it.
func (s *RolesService) DeleteRole(ctx context.Context, roleID string) error {
	err := s.Store.Roles().DeleteRole(ctx, roleID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoleNotFound
	}
	return err
}

// GrantRole adds a user to a role by role name.
func (s *RolesService) GrantRole(ctx context.Context, userID, roleName string) error {
	role, err := s.Store.Roles().GetRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return s.Store.Users().AddUserToRole(ctx, userID, role.ID)
}
