package domain

import "time"

// AccessToken is the stored view of a signed JWT: the compact value plus
// the attributes the session engine needs without re-parsing it. Immutable
// once issued; superseded, never mutated, on rotation.
type AccessToken struct {
	JwtID     string // jti claim, the token's identity
	Value     string // compact serialization
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Alive reports whether the access token expiry is strictly in the future.
func (t AccessToken) Alive(now time.Time) bool {
	return t.ExpiresAt.After(now)
}

// RefreshToken is the opaque counterpart paired 1:1 with exactly one
// access token through JwtID.
type RefreshToken struct {
	Value     string // opaque base64url value
	JwtID     string // jti of the access token minted alongside
	IssuedAt  time.Time
	ExpiresAt time.Time
	Used      bool
}

// Alive reports whether the refresh token can still be exchanged. The
// policy is strict: a token that is used or expired is dead, even though
// the historical behavior this replaces accepted expired-but-unused
// tokens.
func (t RefreshToken) Alive(now time.Time) bool {
	return !t.Used && !now.After(t.ExpiresAt)
}

// Session is the single active token pair a user may hold. The access and
// refresh tokens are installed and purged together; a session never exists
// with only one of them.
type Session struct {
	UserID    string
	Access    AccessToken
	Refresh   RefreshToken
	UpdatedAt time.Time
}

// Linked reports whether the stored refresh token references the stored
// access token.
func (s Session) Linked() bool {
	return s.Refresh.JwtID != "" && s.Refresh.JwtID == s.Access.JwtID
}

// Matches verifies a presented token pair against the stored session:
// both values must equal the stored ones exactly and the stored pair must
// be mutually linked. Any mismatch signals tampering or a stale client.
func (s Session) Matches(accessValue, refreshValue string) bool {
	if s.Access.Value != accessValue {
		return false
	}
	if s.Refresh.Value != refreshValue {
		return false
	}
	return s.Linked()
}
