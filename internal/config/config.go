// Package config loads process configuration from the environment.
//
// Configuration is parsed exactly once (in main) into an immutable Config
// value that is passed by injection into every component. Nothing in the
// codebase reads the environment after startup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Provider holds the OAuth2 client credentials for one SSO provider.
type Provider struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
}

// SMTP holds the mail server settings for verification emails.
// Field names mirror the conventional MAIL_* environment variables.
type SMTP struct {
	Username       string `env:"MAIL_USERNAME"`
	Password       string `env:"MAIL_PASSWORD"`
	From           string `env:"MAIL_FROM"`
	Port           int    `env:"MAIL_PORT"      envDefault:"587"`
	Server         string `env:"MAIL_SERVER"    envDefault:"smtp.gmail.com"`
	StartTLS       bool   `env:"MAIL_STARTTLS"  envDefault:"true"`
	SSL            bool   `env:"MAIL_SSL_TLS"   envDefault:"false"`
	UseCredentials bool   `env:"USE_CREDENTIALS" envDefault:"true"`
	ValidateCerts  bool   `env:"VALIDATE_CERTS"  envDefault:"true"`
}

// Config is the process-wide configuration, read-only after Load.
type Config struct {
	Port    int    `env:"PORT"     envDefault:"8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// DatabaseURL is the SQLite file path (":memory:" works for tests).
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// SecretKey signs every JWT this service issues.
	SecretKey                string `env:"SECRET_KEY,required,notEmpty"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS"   envDefault:"7"`

	Google Provider `envPrefix:"GOOGLE_"`
	Apple  Provider `envPrefix:"APPLE_"`
	Kakao  Provider `envPrefix:"KAKAO_"`

	Mail SMTP
}

// Load parses the environment into a Config.
// Missing required variables (DATABASE_URL, SECRET_KEY) fail loudly here
// rather than surfacing as broken behavior later.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL returns the configured refresh-token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}
