package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/auth-service/internal/apperror"
	"github.com/sakif/auth-service/internal/model"
	"github.com/sakif/auth-service/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, hashed_password, is_active, provider, provider_id, created_at`

// scanUser reads one row into a model.User. is_active is stored as an
// INTEGER 0/1 and converted here.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u      model.User
		active int
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&active,
		&u.Provider,
		&u.ProviderID,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.IsActive = active != 0
	return &u, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The modernc driver surfaces constraint errors as plain error strings, so
// matching the message is the available signal.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByEmail retrieves a user by email.
// Returns apperror.ErrNotFound if no account uses that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// GetByProviderID retrieves a user by the SSO provider's subject identifier.
func (db *DB) GetByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider_id = ?`, providerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by provider_id %s: %w", providerID, err)
	}
	return u, nil
}

// GetByEmailAndProvider retrieves a user by email scoped to one provider.
func (db *DB) GetByEmailAndProvider(ctx context.Context, email, provider string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND provider = ?`, email, provider,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s and provider %s: %w", email, provider, err)
	}
	return u, nil
}

// CreateLocal inserts an email/password account, inactive until verified.
func (db *DB) CreateLocal(ctx context.Context, email, hashedPassword string) (*model.User, error) {
	now := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, is_active, created_at)
		 VALUES (?, ?, 0, ?)`,
		email, hashedPassword, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, fmt.Errorf("sqlite: inserting user %s: %w", email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading inserted id: %w", err)
	}

	return &model.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       false,
		CreatedAt:      now,
	}, nil
}

// CreateSSO inserts a provider-backed account: empty password hash, active
// immediately since the provider already verified the email.
func (db *DB) CreateSSO(ctx context.Context, email, provider, providerID string) (*model.User, error) {
	now := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, is_active, provider, provider_id, created_at)
		 VALUES (?, '', 1, ?, ?, ?)`,
		email, provider, providerID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Account already registered")
		}
		return nil, fmt.Errorf("sqlite: inserting SSO user %s (%s): %w", email, provider, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading inserted id: %w", err)
	}

	return &model.User{
		ID:         id,
		Email:      email,
		IsActive:   true,
		Provider:   sql.NullString{String: provider, Valid: true},
		ProviderID: sql.NullString{String: providerID, Valid: true},
		CreatedAt:  now,
	}, nil
}

// Activate marks the account as email-verified.
// Returns apperror.ErrNotFound if no account uses that email.
func (db *DB) Activate(ctx context.Context, email string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_active = 1 WHERE email = ?`, email,
	)
	if err != nil {
		return fmt.Errorf("sqlite: activating user %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}
