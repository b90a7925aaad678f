// Package model defines the data structures used throughout the application.
package model

import (
	"database/sql"
	"time"
)

// User represents a registered account.
//
// A row is one of two shapes:
//   - local account: non-empty HashedPassword, Provider/ProviderID NULL,
//     IsActive false until the verification email is confirmed
//   - SSO account: empty HashedPassword, Provider and ProviderID set,
//     IsActive true from creation (the provider already verified the email)
//
// Email is unique across both shapes, and ProviderID is unique when present.
// Accounts are never deleted by this system.
type User struct {
	ID             int64          `json:"id"`
	Email          string         `json:"email"`
	HashedPassword string         `json:"-"` // never serialized
	IsActive       bool           `json:"is_active"`
	Provider       sql.NullString `json:"-"` // google, apple, or kakao
	ProviderID     sql.NullString `json:"-"` // provider's stable subject id
	CreatedAt      time.Time      `json:"-"`
}

// PublicUser is the projection returned by /users/me.
// Password hash and provider fields are deliberately excluded.
type PublicUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// Public returns the API projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}

// SSOInfo is the account snapshot included in the SSO callback response.
type SSOInfo struct {
	Email      string `json:"email"`
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
	IsActive   bool   `json:"is_active"`
}

// SSO returns the callback snapshot of the user. Provider fields decode to
// empty strings for local accounts, though the callback flow never resolves one.
func (u *User) SSO() SSOInfo {
	return SSOInfo{
		Email:      u.Email,
		Provider:   u.Provider.String,
		ProviderID: u.ProviderID.String,
		IsActive:   u.IsActive,
	}
}
