package sso

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/sakif/auth-service/internal/config"
)

// makeUnverifiedJWT signs a throwaway token whose claims are the payload
// under test; the signature itself is irrelevant to ParseUnverified.
func makeUnverifiedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := tok.SignedString([]byte("irrelevant-test-key"))
	if err != nil {
		t.Fatalf("signing test id_token: %v", err)
	}
	return signed
}

func testBroker() *Broker {
	return NewBroker(config.Config{
		Google: config.Provider{
			ClientID:     "google-client",
			ClientSecret: "google-secret",
			RedirectURI:  "http://localhost:8080/auth/google/callback",
		},
		Apple: config.Provider{
			ClientID:    "apple-client",
			RedirectURI: "http://localhost:8080/auth/apple/callback",
		},
		Kakao: config.Provider{
			ClientID:    "kakao-client",
			RedirectURI: "http://localhost:8080/auth/kakao/callback",
		},
	})
}

// =========================================================================
// BROKER TESTS
// =========================================================================

func TestBroker_KnownProviders(t *testing.T) {
	b := testBroker()

	for _, name := range []string{Google, Apple, Kakao} {
		p, ok := b.Provider(name)
		if !ok {
			t.Fatalf("Provider(%q) not found", name)
		}
		if p.Name() != name {
			t.Errorf("Name() = %q, want %q", p.Name(), name)
		}
	}
}

func TestBroker_UnknownProvider(t *testing.T) {
	b := testBroker()

	if _, ok := b.Provider("github"); ok {
		t.Fatal("Provider(\"github\") should not be configured")
	}
}

func TestAuthURL_CarriesClientAndState(t *testing.T) {
	b := testBroker()
	p, _ := b.Provider(Google)

	raw := p.AuthURL("state-nonce-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthURL() produced unparseable URL: %v", err)
	}

	q := u.Query()
	if q.Get("client_id") != "google-client" {
		t.Errorf("client_id = %q, want %q", q.Get("client_id"), "google-client")
	}
	if q.Get("state") != "state-nonce-123" {
		t.Errorf("state = %q, want %q", q.Get("state"), "state-nonce-123")
	}
	if q.Get("redirect_uri") != "http://localhost:8080/auth/google/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("scope = %q, should request email", q.Get("scope"))
	}
	if !strings.HasPrefix(raw, "https://accounts.google.com/") {
		t.Errorf("AuthURL() = %q, should point at Google", raw)
	}
}

// =========================================================================
// IDENTITY EXTRACTION TESTS
//
// The exchange itself is the oauth2 library's job; what we own is claim
// extraction, so these tests point a provider at a stub token endpoint and
// a stub userinfo endpoint.
// =========================================================================

// stubProvider returns a Google-shaped provider whose endpoints are served
// by the given test server.
func stubProvider(ts *httptest.Server, decode func([]byte) (*Identity, error)) *Provider {
	p := &Provider{
		name: Google,
		config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  ts.URL + "/authorize",
				TokenURL: ts.URL + "/token",
			},
		},
		userInfoURL: ts.URL + "/userinfo",
	}
	p.identity = p.userInfoIdentity(decode)
	return p
}

func TestExchange_GoogleIdentity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer provider-token") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"google-sub-1","email":"a@x.com"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := stubProvider(ts, decodeGoogleUser)

	id, err := p.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if id.Email != "a@x.com" {
		t.Errorf("Email = %q, want %q", id.Email, "a@x.com")
	}
	if id.ProviderID != "google-sub-1" {
		t.Errorf("ProviderID = %q, want %q", id.ProviderID, "google-sub-1")
	}
}

func TestExchange_TokenEndpointFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	p := stubProvider(ts, decodeGoogleUser)

	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatal("Exchange() should fail when the token endpoint rejects the code")
	}
}

func TestDecodeKakaoUser(t *testing.T) {
	id, err := decodeKakaoUser([]byte(`{"id":123456789,"kakao_account":{"email":"k@x.com"}}`))
	if err != nil {
		t.Fatalf("decodeKakaoUser() error = %v", err)
	}
	if id.ProviderID != "123456789" {
		t.Errorf("ProviderID = %q, want %q", id.ProviderID, "123456789")
	}
	if id.Email != "k@x.com" {
		t.Errorf("Email = %q, want %q", id.Email, "k@x.com")
	}
}

func TestDecodeKakaoUser_MissingFields(t *testing.T) {
	id, err := decodeKakaoUser([]byte(`{}`))
	if err != nil {
		t.Fatalf("decodeKakaoUser() error = %v", err)
	}
	// Missing claims come back empty; the service layer turns that into a 400.
	if id.ProviderID != "" || id.Email != "" {
		t.Errorf("expected empty identity, got %+v", id)
	}
}

func TestAppleIdentity_NoIDToken(t *testing.T) {
	tok := &oauth2.Token{AccessToken: "x"}

	if _, err := appleIdentity(context.Background(), nil, tok); err == nil {
		t.Fatal("appleIdentity() should fail when the token response has no id_token")
	}
}

func TestAppleIdentity_ReadsClaims(t *testing.T) {
	// Unsigned-format id_token with {sub, email} claims; appleIdentity does
	// not check the signature, only the claim payload.
	idToken := makeUnverifiedJWT(t, map[string]any{
		"sub":   "apple-sub-9",
		"email": "apple@x.com",
	})
	tok := (&oauth2.Token{AccessToken: "x"}).WithExtra(map[string]any{"id_token": idToken})

	id, err := appleIdentity(context.Background(), nil, tok)
	if err != nil {
		t.Fatalf("appleIdentity() error = %v", err)
	}
	if id.ProviderID != "apple-sub-9" {
		t.Errorf("ProviderID = %q, want %q", id.ProviderID, "apple-sub-9")
	}
	if id.Email != "apple@x.com" {
		t.Errorf("Email = %q, want %q", id.Email, "apple@x.com")
	}
}
