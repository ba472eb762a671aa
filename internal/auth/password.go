package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
)

// HashPassword returns the bcrypt hash stored in DELETE_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", shareerr.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}

// DeleteGuard checks the password required for deletes. A guard without
// a hash rejects every delete.
type DeleteGuard struct {
	hash []byte
}

// NewDeleteGuard creates a guard for a bcrypt hash, which may be empty.
func NewDeleteGuard(hash string) (*DeleteGuard, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("%w: delete password hash: %w", shareerr.ErrInvalidInput, err)
		}
	}

	return &DeleteGuard{hash: []byte(hash)}, nil
}

// Enabled reports whether a delete password is configured.
func (g *DeleteGuard) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

// Check returns nil if password matches, otherwise an error wrapping
// errors.ErrUnauthorized.
func (g *DeleteGuard) Check(password string) error {
	if !g.Enabled() {
		return fmt.Errorf("%w: deletes are disabled", shareerr.ErrUnauthorized)
	}

	err := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%w: wrong delete password", shareerr.ErrUnauthorized)
	}

	return fmt.Errorf("%w: %w", shareerr.ErrUnauthorized, err)
}
