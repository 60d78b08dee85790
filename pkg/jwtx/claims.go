package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultRole is the role claim substituted when a user holds no roles at
// all, which only happens before any role has been created in the system.
// Granting Administrator keeps a freshly bootstrapped deployment operable.
const DefaultRole = "Administrator"

// Claims are the identity claims embedded in access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Name is the user's display name.
	Name string `json:"name,omitempty"`

	// Email address the user authenticated with.
	Email string `json:"email,omitempty"`

	// Username for the authenticated user.
	Username string `json:"username,omitempty"`

	// Roles the user held when the token was issued.
	Roles []string `json:"roles,omitempty"`
}

// NewIdentityClaims assembles the claim set for a user. A fresh jti is
// generated on every call; claims are otherwise a pure function of the
// inputs. An empty roleNames falls back to the single DefaultRole claim.
func NewIdentityClaims(
	subject, name, email, username string,
	roleNames []string,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	roles := roleNames
	if len(roles) == 0 {
		roles = []string{DefaultRole}
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Name:     name,
		Email:    email,
		Username: username,
		Roles:    roles,
	}
}

// NewJTI returns a unique identifier for the "jti" claim. Never reused
// across tokens.
func NewJTI() string {
	return uuid.NewString()
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
