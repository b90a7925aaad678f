// Package sso implements the OAuth2 login flow against third-party identity
// providers.
//
// All providers share one authorization-code algorithm:
//
//  1. Authorize: redirect the browser to the provider's authorization
//     endpoint with our client id, scopes, and callback URI.
//  2. Callback: exchange the returned code for tokens (server-to-server,
//     using the client secret), then extract the account email and the
//     provider's stable subject id from the result.
//
// What differs per provider is only the endpoint set, the scopes, and where
// the identity claims live: Google and Kakao expose a userinfo endpoint,
// Apple returns the claims inside the id_token of the token response.
package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/sakif/auth-service/internal/config"
)

// Provider names. These are the only accepted values of the {provider}
// path segment.
const (
	Google = "google"
	Apple  = "apple"
	Kakao  = "kakao"
)

// Identity is what we need from a provider to resolve an account:
// the email and the provider's stable subject identifier.
type Identity struct {
	Email      string
	ProviderID string
}

// identityFunc extracts an Identity from an exchanged token.
type identityFunc func(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*Identity, error)

// Provider is one configured SSO variant.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	identity    identityFunc
}

// Name returns the provider's route name (google, apple, kakao).
func (p *Provider) Name() string { return p.name }

// AuthURL builds the authorization-redirect URL carrying our client id,
// scopes, callback URI, and the caller's CSRF state nonce.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the provider identity.
// The code-for-token exchange is a server-to-server POST using the client
// secret; provider tokens never reach the browser.
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("sso: exchanging %s code: %w", p.name, err)
	}

	id, err := p.identity(ctx, p.config, tok)
	if err != nil {
		return nil, fmt.Errorf("sso: %s identity: %w", p.name, err)
	}
	return id, nil
}

// Broker holds the configured provider set and dispatches by name.
type Broker struct {
	providers map[string]*Provider
}

// NewBroker builds the fixed provider set from configuration.
// Endpoints and scopes are constants of each provider's platform; only the
// client credentials and callback URIs come from the environment.
func NewBroker(cfg config.Config) *Broker {
	google := &Provider{
		name: Google,
		config: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://accounts.google.com/o/oauth2/token",
			},
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
	google.identity = google.userInfoIdentity(decodeGoogleUser)

	apple := &Provider{
		name: Apple,
		config: &oauth2.Config{
			ClientID:     cfg.Apple.ClientID,
			ClientSecret: cfg.Apple.ClientSecret,
			RedirectURL:  cfg.Apple.RedirectURI,
			Scopes:       []string{"name", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://appleid.apple.com/auth/authorize",
				TokenURL: "https://appleid.apple.com/auth/token",
			},
		},
		identity: appleIdentity,
	}

	kakao := &Provider{
		name: Kakao,
		config: &oauth2.Config{
			ClientID:     cfg.Kakao.ClientID,
			ClientSecret: cfg.Kakao.ClientSecret,
			RedirectURL:  cfg.Kakao.RedirectURI,
			Scopes:       []string{"profile_nickname", "profile_image", "account_email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://kauth.kakao.com/oauth/authorize",
				TokenURL: "https://kauth.kakao.com/oauth/token",
			},
		},
		userInfoURL: "https://kapi.kakao.com/v2/user/me",
	}
	kakao.identity = kakao.userInfoIdentity(decodeKakaoUser)

	return &Broker{providers: map[string]*Provider{
		Google: google,
		Apple:  apple,
		Kakao:  kakao,
	}}
}

// Provider returns the named provider, or (nil, false) for anything outside
// the configured set.
func (b *Broker) Provider(name string) (*Provider, bool) {
	p, ok := b.providers[name]
	return p, ok
}

// userInfoIdentity returns an identityFunc that calls the provider's
// userinfo endpoint with the exchanged token and decodes the response.
// oauth2.Config.Client attaches the bearer token to every request.
func (p *Provider) userInfoIdentity(decode func([]byte) (*Identity, error)) identityFunc {
	return func(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*Identity, error) {
		client := cfg.Client(ctx, tok)

		resp, err := client.Get(p.userInfoURL)
		if err != nil {
			return nil, fmt.Errorf("calling userinfo endpoint: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
		}

		buf, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading userinfo response: %w", err)
		}
		return decode(buf)
	}
}

// decodeGoogleUser reads the OpenID Connect userinfo shape: {sub, email, ...}.
func decodeGoogleUser(data []byte) (*Identity, error) {
	var payload struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	return &Identity{Email: payload.Email, ProviderID: payload.Sub}, nil
}

// decodeKakaoUser reads Kakao's /v2/user/me shape: the stable subject is the
// numeric top-level id, the email sits under kakao_account.
func decodeKakaoUser(data []byte) (*Identity, error) {
	var payload struct {
		ID      int64 `json:"id"`
		Account struct {
			Email string `json:"email"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}

	var providerID string
	if payload.ID != 0 {
		providerID = strconv.FormatInt(payload.ID, 10)
	}
	return &Identity{Email: payload.Account.Email, ProviderID: providerID}, nil
}

// appleIdentity reads the claims from the id_token in the token response.
// Apple has no userinfo endpoint. The id_token arrived directly from Apple's
// token endpoint over TLS in the same exchange, so we parse its claims
// without a separate JWKS verification round-trip.
func appleIdentity(_ context.Context, _ *oauth2.Config, tok *oauth2.Token) (*Identity, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, fmt.Errorf("token response has no id_token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parsing id_token: %w", err)
	}

	email, _ := claims["email"].(string)
	sub, _ := claims["sub"].(string)
	return &Identity{Email: email, ProviderID: sub}, nil
}
