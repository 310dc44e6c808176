package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a user. The email is expected to be normalized already.
// A duplicate email is reported as apperror.ErrConflict, never as a raw
// driver error.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, password, role, api_calls) VALUES (?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.APICalls,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: user last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByEmail returns apperror.ErrNotFound when no such user exists.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password, role, api_calls FROM users WHERE email = ?`,
		email,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", email, err)
	}
	return u, nil
}

// ListUsers returns every user ordered by email.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, password, role, api_calls FROM users ORDER BY email`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of upd.
func (db *DB) UpdateUser(ctx context.Context, email string, upd repository.UserUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *upd.Role)
	}
	if upd.APICalls != nil {
		sets = append(sets, "api_calls = ?")
		args = append(args, *upd.APICalls)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, email)

	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE email = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", email, err)
	}
	return requireAffected(res, "user", email)
}

// IncrementAPICalls bumps the usage counter by one. The limit check and
// the increment are a single statement. Admins are not capped. A missing
// user is apperror.ErrNotFound.
func (db *DB) IncrementAPICalls(ctx context.Context, email string, limit int) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET api_calls = api_calls + 1
		 WHERE email = ? AND (role = ? OR api_calls < ?)`,
		email, model.RoleAdmin, limit,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: incrementing api calls for %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if _, err := db.GetUserByEmail(ctx, email); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteUser removes the user and cascades to their scheduled posts.
// There is no FOREIGN KEY on scheduled_posts (legacy schema), so the
// cascade is done by hand inside one transaction.
func (db *DB) DeleteUser(ctx context.Context, email string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete of user %s: %w", email, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", email, err)
	}
	if err := requireAffected(res, "user", email); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_posts WHERE user_email = ?`, email); err != nil {
		return fmt.Errorf("sqlite: deleting posts of user %s: %w", email, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of user %s: %w", email, err)
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.APICalls); err != nil {
		return nil, err
	}
	return &u, nil
}

// requireAffected turns "zero rows touched" into apperror.ErrNotFound.
func requireAffected(res sql.Result, resource, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, key)
	}
	return nil
}
