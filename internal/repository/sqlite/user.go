package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new account. Emails are unique regardless of case.
func (db *DB) CreateUser(ctx context.Context, in model.Signup, passwordHash string) (model.User, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, password, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Email),
		passwordHash,
		in.FirstName,
		in.LastName,
		db.timestamp(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, apperror.Conflict("Email already registered")
		}
		return model.User{}, fmt.Errorf("sqlite: inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("sqlite: reading user id: %w", err)
	}
	rec, err := db.GetUserByID(ctx, int(id))
	if err != nil {
		return model.User{}, err
	}
	return rec.User, nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int) (repository.UserRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password, first_name, last_name FROM users WHERE id = ?`, id)
	return scanUser(row, strconv.Itoa(id))
}

// GetUserByEmail looks the email up case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (repository.UserRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password, first_name, last_name FROM users WHERE email = ?`,
		strings.TrimSpace(email))
	return scanUser(row, email)
}

func scanUser(row *sql.Row, key string) (repository.UserRecord, error) {
	var u repository.UserRecord
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.UserRecord{}, apperror.NotFound("user", key)
		}
		return repository.UserRecord{}, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}
	return u, nil
}

// UpdateUser builds the SET clause from the fields that are present.
func (db *DB) UpdateUser(ctx context.Context, id int, in model.UserUpdate, passwordHash string) (model.User, error) {
	var (
		sets []string
		args []any
	)
	if in.FirstName != "" {
		sets = append(sets, "first_name = ?")
		args = append(args, in.FirstName)
	}
	if in.LastName != "" {
		sets = append(sets, "last_name = ?")
		args = append(args, in.LastName)
	}
	if in.Email != "" {
		sets = append(sets, "email = ?")
		args = append(args, strings.TrimSpace(in.Email))
	}
	if passwordHash != "" {
		sets = append(sets, "password = ?")
		args = append(args, passwordHash)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := db.conn.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return model.User{}, apperror.Conflict("Email already registered")
			}
			return model.User{}, fmt.Errorf("sqlite: updating user %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.User{}, apperror.NotFound("user", strconv.Itoa(id))
		}
	}

	rec, err := db.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return rec.User, nil
}

// DeleteUser removes the user. Posts and votes go with it (ON DELETE CASCADE).
func (db *DB) DeleteUser(ctx context.Context, id int) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", strconv.Itoa(id))
	}
	return nil
}
