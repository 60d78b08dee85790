package sqlite

import (
	"context"
	"time"

	"github.com/egx/identity/internal/identity/domain"
	"github.com/egx/identity/internal/identity/store"
)

type sessionsRepo struct {
	db dbtx
}

const sessionColumns = `user_id, jwt_id, jwt_value, jwt_issued_at, jwt_expires_at,
	refresh_value, refresh_jwt_id, refresh_issued_at, refresh_expires_at,
	refresh_used, updated_at`

func (r *sessionsRepo) GetLive(ctx context.Context, userID string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ?`, userID)
	return scanSession(row)
}

func (r *sessionsRepo) GetByAccessToken(ctx context.Context, accessValue string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE jwt_value = ?`, accessValue)
	return scanSession(row)
}

func (r *sessionsRepo) HasAliveAccessToken(ctx context.Context, userID string, now time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND jwt_expires_at > ?`,
		userID, now.UTC(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// replaceQuery installs a pair in a single upsert: the old pair is purged
// and the new one set in the same statement, so no reader sees the two
// tokens independently mid-transition.
const replaceQuery = `
	INSERT INTO sessions (` + sessionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		jwt_id = excluded.jwt_id,
		jwt_value = excluded.jwt_value,
		jwt_issued_at = excluded.jwt_issued_at,
		jwt_expires_at = excluded.jwt_expires_at,
		refresh_value = excluded.refresh_value,
		refresh_jwt_id = excluded.refresh_jwt_id,
		refresh_issued_at = excluded.refresh_issued_at,
		refresh_expires_at = excluded.refresh_expires_at,
		refresh_used = excluded.refresh_used,
		updated_at = excluded.updated_at`

func (r *sessionsRepo) Replace(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, replaceQuery, replaceArgs(s)...)
	return err
}

// conditionalReplaceQuery is a plain filtered update, not an upsert: if
// the row has been purged or its refresh value rotated since the caller
// read it, zero rows match and nothing is written.
const conditionalReplaceQuery = `
	UPDATE sessions SET
		jwt_id = ?,
		jwt_value = ?,
		jwt_issued_at = ?,
		jwt_expires_at = ?,
		refresh_value = ?,
		refresh_jwt_id = ?,
		refresh_issued_at = ?,
		refresh_expires_at = ?,
		refresh_used = ?,
		updated_at = ?
	WHERE user_id = ? AND refresh_value = ?`

// ReplaceIfRefreshMatches only applies the swap while the stored refresh
// value still equals the one the caller validated. Of two concurrent
// rotations against the same stale token, exactly one commits; the other
// gets ErrConflict.
func (r *sessionsRepo) ReplaceIfRefreshMatches(ctx context.Context, s domain.Session, expectedRefreshValue string) error {
	res, err := r.db.ExecContext(ctx, conditionalReplaceQuery,
		s.Access.JwtID,
		s.Access.Value,
		s.Access.IssuedAt.UTC(),
		s.Access.ExpiresAt.UTC(),
		s.Refresh.Value,
		s.Refresh.JwtID,
		s.Refresh.IssuedAt.UTC(),
		s.Refresh.ExpiresAt.UTC(),
		s.Refresh.Used,
		time.Now().UTC(),
		s.UserID,
		expectedRefreshValue,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *sessionsRepo) Purge(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE refresh_expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func replaceArgs(s domain.Session) []any {
	return []any{
		s.UserID,
		s.Access.JwtID,
		s.Access.Value,
		s.Access.IssuedAt.UTC(),
		s.Access.ExpiresAt.UTC(),
		s.Refresh.Value,
		s.Refresh.JwtID,
		s.Refresh.IssuedAt.UTC(),
		s.Refresh.ExpiresAt.UTC(),
		s.Refresh.Used,
		time.Now().UTC(),
	}
}

func scanSession(row rowScanner) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.UserID,
		&s.Access.JwtID,
		&s.Access.Value,
		&s.Access.IssuedAt,
		&s.Access.ExpiresAt,
		&s.Refresh.Value,
		&s.Refresh.JwtID,
		&s.Refresh.IssuedAt,
		&s.Refresh.ExpiresAt,
		&s.Refresh.Used,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}
