// Package notify sends plain-text mails for inventory alerts and booking
// confirmations.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/iliyamo/party-venue-reservation/internal/config"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer sends through SMTP with go-mail.
type Mailer struct {
	cfg config.MailConfig
}

// NewMailer returns nil when no SMTP host is configured; callers treat a
// nil Sender as "mail disabled".
func NewMailer(cfg config.MailConfig) Sender {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) client() (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password))
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	c, err := m.client()
	if err != nil {
		slog.Error("smtp client init failed", "host", m.cfg.Host, "error", err)
		return err
	}
	return c.DialAndSendWithContext(ctx, msg)
}
