// Package mail sends account-verification emails.
//
// Handlers never talk SMTP directly: they enqueue a send on the Dispatcher
// and return immediately. Delivery is best-effort: a failed send is logged
// and dropped, never retried, and never reported back to the client.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	gomail "github.com/wneessen/go-mail"

	"github.com/sakif/auth-service/internal/config"
)

// verificationTTLMinutes is quoted in the email body; it matches the
// lifetime of the email-verification token.
const verificationTTLMinutes = 30

// Mailer delivers a verification email carrying the given token.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
}

// SMTPMailer sends through a configured SMTP relay using go-mail.
type SMTPMailer struct {
	cfg     config.SMTP
	baseURL string // public base URL of this service, for the link
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTPMailer. baseURL is the externally reachable
// root of this service (e.g. "https://auth.example.com").
func NewSMTPMailer(cfg config.SMTP, baseURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, baseURL: baseURL}
}

// SendVerification composes and delivers the verification email.
// Each call dials a fresh connection; verification volume doesn't justify
// holding an SMTP session open.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, token string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail: invalid from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: invalid recipient %q: %w", to, err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", m.baseURL, url.QueryEscape(token))

	msg.Subject("Email Verification")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Hello,\nPlease click the link below to verify your email address.\n\n%s\n\nThe link is valid for %d minutes.",
		link, verificationTTLMinutes,
	))

	client, err := m.client()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", to, err)
	}
	return nil
}

// client builds a go-mail client from the SMTP settings.
func (m *SMTPMailer) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
	}

	switch {
	case m.cfg.SSL:
		opts = append(opts, gomail.WithSSLPort(false))
	case m.cfg.StartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if m.cfg.UseCredentials {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	if !m.cfg.ValidateCerts {
		opts = append(opts, gomail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	client, err := gomail.NewClient(m.cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: creating SMTP client for %s: %w", m.cfg.Server, err)
	}
	return client, nil
}
