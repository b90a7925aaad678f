// Package token issues and verifies the JWTs this service hands out.
//
// Three token kinds share one mechanism, an HS256-signed {sub, exp} payload,
// and differ only in lifetime:
//
//	access             minutes, configurable
//	refresh            days, configurable
//	email verification fixed 30 minutes
//
// Tokens are stateless: the signature plus expiry is the whole story, so
// nothing is persisted and nothing can be revoked before expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects the default lifetime for an issued token.
type Kind int

const (
	Access Kind = iota
	Refresh
	EmailVerification
)

// emailVerificationTTL is fixed; the verification link states it.
const emailVerificationTTL = 30 * time.Minute

const issuer = "auth-service"

// Service signs and verifies tokens with a single symmetric key.
// The same key must be used for both operations.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a Service. The secret should be at least 32 bytes of random
// data in production (e.g. SECRET_KEY=$(openssl rand -hex 32)); anything
// under 16 characters is rejected outright.
func New(secret string, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if len(secret) < 16 {
		return nil, errors.New("token: signing secret must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: token lifetimes must be positive")
	}
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// claims embeds jwt.RegisteredClaims; the subject carries the account email.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for the given subject with the kind's TTL.
func (s *Service) Issue(subject string, kind Kind) (string, error) {
	switch kind {
	case Access:
		return s.IssueWithTTL(subject, s.accessTTL)
	case Refresh:
		return s.IssueWithTTL(subject, s.refreshTTL)
	case EmailVerification:
		return s.IssueWithTTL(subject, emailVerificationTTL)
	default:
		return "", fmt.Errorf("token: unknown token kind %d", kind)
	}
}

// IssueWithTTL creates a token with an explicit lifetime.
// Exported so tests can mint already-expired tokens.
func (s *Service) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: signing: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token string, returning the subject claim.
//
// An error means the token is unusable for any flow: malformed, expired,
// signed with a different key, or signed with an unexpected algorithm.
// Pinning the accepted methods to HS256 closes the algorithm-confusion hole
// where an attacker submits a token claiming alg "none".
func (s *Service) Verify(tokenStr string) (string, error) {
	t, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("token: unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("token: expired")
		}
		return "", fmt.Errorf("token: invalid: %w", err)
	}

	c, ok := t.Claims.(*claims)
	if !ok || !t.Valid {
		return "", errors.New("token: invalid claims")
	}
	if c.Subject == "" {
		return "", errors.New("token: missing subject")
	}

	return c.Subject, nil
}
