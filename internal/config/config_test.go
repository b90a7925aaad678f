package config

import (
	"testing"
	"time"
)

// setRequiredEnv sets the two variables Load refuses to default.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "data/auth.db")
	t.Setenv("SECRET_KEY", "test-secret-at-least-16-chars!!")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.AccessTokenExpireMinutes != 30 {
		t.Errorf("AccessTokenExpireMinutes = %d, want 30", cfg.AccessTokenExpireMinutes)
	}
	if cfg.RefreshTokenExpireDays != 7 {
		t.Errorf("RefreshTokenExpireDays = %d, want 7", cfg.RefreshTokenExpireDays)
	}
	if cfg.Mail.Port != 587 {
		t.Errorf("Mail.Port = %d, want 587", cfg.Mail.Port)
	}
	if !cfg.Mail.StartTLS {
		t.Error("Mail.StartTLS should default to true")
	}
	if cfg.Mail.SSL {
		t.Error("Mail.SSL should default to false")
	}
}

func TestLoad_MissingSecretKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "data/auth.db")
	t.Setenv("SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when SECRET_KEY is unset")
	}
}

func TestLoad_ProviderPrefixes(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_CLIENT_ID", "google-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "google-secret")
	t.Setenv("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/google/callback")
	t.Setenv("KAKAO_CLIENT_ID", "kakao-id")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Google.ClientID != "google-id" {
		t.Errorf("Google.ClientID = %q, want %q", cfg.Google.ClientID, "google-id")
	}
	if cfg.Google.RedirectURI != "http://localhost:8080/auth/google/callback" {
		t.Errorf("Google.RedirectURI = %q", cfg.Google.RedirectURI)
	}
	if cfg.Kakao.ClientID != "kakao-id" {
		t.Errorf("Kakao.ClientID = %q, want %q", cfg.Kakao.ClientID, "kakao-id")
	}
	if cfg.Apple.ClientID != "" {
		t.Errorf("Apple.ClientID = %q, want empty", cfg.Apple.ClientID)
	}
}

func TestTTLHelpers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL() = %v, want %v", got, 15*time.Minute)
	}
	if got := cfg.RefreshTTL(); got != 30*24*time.Hour {
		t.Errorf("RefreshTTL() = %v, want %v", got, 30*24*time.Hour)
	}
}
