// Package domain contains the core business entities and interfaces.
package domain

import "context"

// User represents an account in the credential store.
type User struct {
	Username     string
	PasswordHash []byte
}

// UserRepository is the port for credential persistence.
type UserRepository interface {
	Exists(ctx context.Context, username string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, username string, passwordHash []byte) error
}
