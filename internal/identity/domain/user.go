package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // argon2id encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is what lands in the "name" token claim. Either name part
// may be empty; only the parts that are set contribute, so a missing
// first name never leaves a stray leading space.
func (u User) DisplayName() string {
	parts := make([]string, 0, 2)
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	return strings.Join(parts, " ")
}
