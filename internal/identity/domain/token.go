package domain

import "time"

// TokenPair is the credential material handed back to a client after a
// successful login or refresh.
type TokenPair struct {
	JwtToken     string
	RefreshToken string
	ExpiresAt    time.Time
}
