// Package smtp delivers email through an SMTP relay.
package smtp

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailer = (*Mailer)(nil)

// Settings configures the relay connection.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

// Mailer implements driven.Mailer with go-mail. A new connection is dialled
// for every message.
type Mailer struct {
	settings Settings
}

// NewMailer creates a Mailer. Host is required.
func NewMailer(settings Settings) (*Mailer, error) {
	if settings.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if settings.Port == 0 {
		settings.Port = 587
	}
	return &Mailer{settings: settings}, nil
}

// Send delivers email.
func (m *Mailer) Send(ctx context.Context, email model.Email) error {
	msg, err := buildMessage(email)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.settings.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.settings.Port),
	}

	if m.settings.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Port 465 uses implicit TLS, everything else STARTTLS.
		if m.settings.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if m.settings.Username != "" && m.settings.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.settings.Username),
			mail.WithPassword(m.settings.Password),
		)
	}

	return opts
}

func buildMessage(email model.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if email.FromName != "" {
		if err := msg.FromFormat(email.FromName, email.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("setting reply-to address: %w", err)
		}
	}

	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Body)
	return msg, nil
}
