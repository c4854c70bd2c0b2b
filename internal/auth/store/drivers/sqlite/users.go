package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
)

type usersRepo struct {
	db querier
}

const userColumns = `id, username, password_hash, email, company_id, role, is_active, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u userRow
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.CompanyID,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(u), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) FindActiveByUsername(ctx context.Context, username string) (domain.User, error) {
	// Exact, case-sensitive match; first active row wins. The username
	// column carries a global UNIQUE constraint, so at most one row can
	// match anyway.
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND is_active = 1 LIMIT 1`, username))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := u.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Username,
		u.PasswordHash,
		mapStringNull(u.Email),
		u.TenantID,
		u.Role,
		u.IsActive,
		mapOptionalTime(u.LastLoginAt),
		createdAt,
		updatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
