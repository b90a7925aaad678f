// Package service holds the authentication business logic.
//
// AuthService sits between the HTTP handlers and the collaborators:
//
//	handler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                                     ↘ token.Service (JWT)
//	                                     ↘ PasswordService (bcrypt)
//	                                     ↘ Notifier (background email)
//
// Handlers own HTTP concerns (status codes, JSON shapes); this layer owns
// the rules: who may log in, when emails fire, how SSO identities map to
// accounts. Errors cross the boundary as apperror values the handler maps
// to statuses.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/auth-service/internal/apperror"
	"github.com/sakif/auth-service/internal/auth"
	"github.com/sakif/auth-service/internal/model"
	"github.com/sakif/auth-service/internal/repository"
	"github.com/sakif/auth-service/internal/sso"
	"github.com/sakif/auth-service/internal/token"
)

// Notifier schedules a verification email without blocking the caller.
// Delivery is best-effort; Enqueue returning says nothing about whether the
// email will actually arrive.
type Notifier interface {
	Enqueue(to, token string)
}

// AuthService orchestrates signup, login, verification, and SSO flows.
type AuthService struct {
	users     repository.UserRepository
	tokens    *token.Service
	passwords *auth.PasswordService
	notifier  Notifier
	logger    *slog.Logger
}

// NewAuthService wires an AuthService. Called from the composition root.
func NewAuthService(
	users repository.UserRepository,
	tokens *token.Service,
	passwords *auth.PasswordService,
	notifier Notifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		notifier:  notifier,
		logger:    logger,
	}
}

// TokenPair is the bearer credential set returned by login and SSO flows.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// issuePair mints an access+refresh pair bound to the given subject email.
func (s *AuthService) issuePair(subject string) (*TokenPair, error) {
	access, err := s.tokens.Issue(subject, token.Access)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing access token: %w", err)
	}
	refresh, err := s.tokens.Issue(subject, token.Refresh)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Signup registers a local account and schedules the verification email.
//
// The email check happens before the insert to give the clean conflict
// message; the UNIQUE constraint still backstops a race between two
// concurrent signups for the same address.
func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return apperror.Validation("Email and password are required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return apperror.Conflict("Email already registered")
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("service/auth: checking email %s: %w", email, err)
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.users.CreateLocal(ctx, email, hashed)
	if err != nil {
		return fmt.Errorf("service/auth: creating user %s: %w", email, err)
	}

	s.logger.Info("user signed up", slog.Int64("userID", user.ID), slog.String("email", email))

	s.scheduleVerification(email)
	return nil
}

// VerifyEmail consumes a verification token and activates the account.
// Both an unusable token and an unknown subject surface as validation
// errors so the handler returns 400 for either.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) error {
	email, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return apperror.Validation("Invalid token")
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Validation("User not found")
		}
		return fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.users.Activate(ctx, email); err != nil {
		return fmt.Errorf("service/auth: activating %s: %w", email, err)
	}

	s.logger.Info("email verified", slog.String("email", email))
	return nil
}

// ResendVerification regenerates a fresh token and re-schedules the email.
// Unknown accounts surface as not-found (404), unlike the verify path.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	s.scheduleVerification(email)
	return nil
}

// Login performs the password grant.
//
// An unknown email, an SSO-only account (empty hash), and a wrong password
// all return the identical message so responses don't reveal which emails
// are registered. is_active deliberately does not gate login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	badCredentials := apperror.Validation("Incorrect username or password")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, badCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if user.HashedPassword == "" {
		return nil, badCredentials
	}
	if err := s.passwords.Verify(user.HashedPassword, password); err != nil {
		return nil, badCredentials
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return pair, nil
}

// GetUserByEmail resolves the account behind a verified bearer subject.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching %s: %w", email, err)
	}
	return user, nil
}

// SSOResult bundles the issued tokens with the resolved account snapshot.
type SSOResult struct {
	TokenPair
	UserInfo model.SSOInfo `json:"user_info"`
}

// LoginSSO resolves a provider identity to an account, creating one on
// first sight, and issues a token pair.
//
// Resolution is strictly by provider_id. A pre-existing local account with
// the same email is NOT linked; the insert then fails on the email UNIQUE
// constraint and the caller sees a conflict. Linking-by-email is a product
// decision this service does not take.
func (s *AuthService) LoginSSO(ctx context.Context, provider string, identity *sso.Identity) (*SSOResult, error) {
	if identity == nil || identity.Email == "" || identity.ProviderID == "" {
		return nil, apperror.Validation("Email or provider ID not provided by SSO provider")
	}

	user, err := s.users.GetByProviderID(ctx, identity.ProviderID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.users.CreateSSO(ctx, identity.Email, provider, identity.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("service/auth: creating SSO user %s (%s): %w", identity.Email, provider, err)
		}
		s.logger.Info("SSO user created",
			slog.Int64("userID", user.ID),
			slog.String("provider", provider),
		)
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up provider_id: %w", err)
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}

	return &SSOResult{TokenPair: *pair, UserInfo: user.SSO()}, nil
}

// scheduleVerification mints a fresh email-verification token and hands it
// to the background notifier. Token-signing failure is logged rather than
// failing the request: the account exists either way and resend covers it.
func (s *AuthService) scheduleVerification(email string) {
	t, err := s.tokens.Issue(email, token.EmailVerification)
	if err != nil {
		s.logger.Error("issuing verification token failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return
	}
	s.notifier.Enqueue(email, t)
}
