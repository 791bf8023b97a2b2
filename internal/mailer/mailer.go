// Package mailer delivers notification digests over SMTP.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/notify"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("mail transport is not configured")

// DefaultSubject is the subject line for catalog digests.
const DefaultSubject = "Your book catalog"

// Sender delivers a digest to its recipient.
type Sender interface {
	Send(ctx context.Context, digest notify.Digest) error
}

// Mailer is the SMTP-backed Sender.
type Mailer struct {
	config config.Mail
}

// New creates a mailer from the mail configuration.
func New(cfg config.Mail) *Mailer {
	return &Mailer{config: cfg}
}

// Send delivers one digest as a JSON-bodied message. The body format
// (an array of {Book, author, ISBN} objects) is what recipients have
// always received.
func (m *Mailer) Send(ctx context.Context, digest notify.Digest) error {
	if m.config.Host == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(digest.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode digest: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from()); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(digest.Recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(DefaultSubject)
	msg.SetBodyString(gomail.TypeTextHTML, string(body))

	client, err := m.newClient()
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("message to %s could not be sent: %w", digest.Recipient, err)
	}

	return nil
}

func (m *Mailer) from() string {
	if m.config.From != "" {
		return m.config.From
	}
	return m.config.Username
}

func (m *Mailer) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.config.Port),
	}

	if m.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.config.Username),
			gomail.WithPassword(m.config.Password),
		)
	}

	if m.config.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	return gomail.NewClient(m.config.Host, opts...)
}
