package repository

import (
	"context"

	"github.com/sakif/auth-service/internal/model"
)

// UserRepository is the persistence boundary for accounts.
//
// Lookups return apperror.ErrNotFound (wrapped) when no row matches.
// Creates return apperror.ErrConflict (wrapped) on email/provider_id
// uniqueness violations. Every write is a single-row statement committed
// immediately; no operation spans multiple entities.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*model.User, error)
	GetByEmailAndProvider(ctx context.Context, email, provider string) (*model.User, error)

	// CreateLocal inserts an email/password account. The password arrives
	// already hashed; the row starts inactive pending email verification.
	CreateLocal(ctx context.Context, email, hashedPassword string) (*model.User, error)

	// CreateSSO inserts a provider-backed account with an empty password
	// hash, active from the start.
	CreateSSO(ctx context.Context, email, provider, providerID string) (*model.User, error)

	// Activate marks the account with the given email as verified.
	Activate(ctx context.Context, email string) error
}
