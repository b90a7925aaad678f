// Package auth provides password hashing and the bearer-token middleware.
//
// Passwords are hashed with bcrypt, which generates a random salt per hash
// and embeds it in the output, so the stored string is self-contained.
// Fast hashes (MD5, SHA-256) are never acceptable for stored credentials.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is tuned so a hash takes roughly 250ms on current server
// hardware: negligible at login, expensive for brute force.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
// It is a struct rather than free functions so the cost can be lowered in
// tests without touching the logic under test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a caller-chosen
// cost. Tests use bcrypt.MinCost (4) to avoid ~250ms per hash.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password.
//
// bcrypt silently truncates inputs beyond 72 bytes; we reject them
// explicitly so callers aren't surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches a stored bcrypt hash.
// The comparison is constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
