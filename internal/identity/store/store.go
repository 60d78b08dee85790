package store

import (
	"context"
	"errors"
	"time"

	"github.com/egx/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports that a conditional session replace lost an
	// optimistic concurrency check: the stored refresh token no longer
	// equals the value the caller validated.
	ErrConflict = errors.New("store: session conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Roles() Roles
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Only flows that genuinely need
	// multi-statement writes (user creation plus role grant) use this;
	// session pair swaps are always a single statement.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail resolves the login identifier.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email or username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// AddUserToRole grants a role membership.
	AddUserToRole(ctx context.Context, userID, roleID string) error

	// ListRoleNamesForUser returns the names of every role the user holds.
	ListRoleNamesForUser(ctx context.Context, userID string) ([]string, error)
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	ListAll(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role (id is ULID). Names are unique.
	CreateRole(ctx context.Context, r domain.Role) error

	UpdateRoleName(ctx context.Context, roleID, name string) error

	// DeleteRole removes a role; memberships cascade per schema.
	DeleteRole(ctx context.Context, roleID string) error

	// IsEmpty reports whether no roles exist yet.
	IsEmpty(ctx context.Context) (bool, error)
}

// Sessions owns the persisted current token pair, one row per user. Every
// mutation is a single-row statement: the backing store's single-document
// atomicity is the only concurrency primitive the engine relies on.
type Sessions interface {
	// GetLive returns the user's current pair, ErrNotFound when absent.
	// No expiry filtering happens here; expiry is the validator's job.
	GetLive(ctx context.Context, userID string) (domain.Session, error)

	// GetByAccessToken resolves the session owning the exact stored
	// access-token value. Used to find the token's owner on refresh.
	GetByAccessToken(ctx context.Context, accessValue string) (domain.Session, error)

	// HasAliveAccessToken reports whether a session exists whose access
	// token expiry is strictly in the future at now.
	HasAliveAccessToken(ctx context.Context, userID string, now time.Time) (bool, error)

	// Replace atomically purges any existing pair and installs s as one
	// upsert; a concurrent reader never observes a half-written pair.
	Replace(ctx context.Context, s domain.Session) error

	// ReplaceIfRefreshMatches is the rotation variant: the swap only
	// applies while the stored refresh value still equals
	// expectedRefreshValue, otherwise ErrConflict. This is what makes a
	// refresh one-shot under concurrent requests.
	ReplaceIfRefreshMatches(ctx context.Context, s domain.Session, expectedRefreshValue string) error

	// Purge clears the pair in one statement; both tokens become absent
	// together. Purging an absent session is a no-op.
	Purge(ctx context.Context, userID string) error

	// DeleteExpired drops sessions whose refresh token expired before
	// now. Housekeeping only.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
