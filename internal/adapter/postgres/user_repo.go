package postgres

import (
	"context"
	"database/sql"
	"errors"

	"mathtutor/internal/domain"
)

// Exists reports whether a row with that exact username exists.
func (d *DB) Exists(ctx context.Context, username string) (bool, error) {
	var one int
	err := d.sql.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username = $1",
		username,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByUsername retrieves a user, or nil if no such row exists.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT username, password FROM users WHERE username = $1",
		username,
	).Scan(&u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (d *DB) Create(ctx context.Context, username string, passwordHash []byte) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO users (username, password) VALUES ($1, $2)",
		username, passwordHash,
	)
	return err
}
