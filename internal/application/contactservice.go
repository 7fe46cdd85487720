package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Sentinel errors returned by ContactService.
var (
	// ErrInvalidContact indicates the submitted form failed validation.
	ErrInvalidContact = errors.New("invalid contact request")

	// ErrContactDisabled indicates no mailer is configured.
	ErrContactDisabled = errors.New("contact form disabled")
)

const maxContactMessageLen = 5000

// ContactRequest is a submitted contact form.
type ContactRequest struct {
	From    string
	Name    string
	Subject model.ContactSubject
	Message string
}

// ContactService forwards contact form submissions by email.
type ContactService struct {
	mailer   driven.Mailer
	from     string
	to       string
	sanitize *bluemonday.Policy
}

// NewContactService creates a ContactService. A nil mailer disables the form.
func NewContactService(mailer driven.Mailer, from, to string) *ContactService {
	return &ContactService{
		mailer:   mailer,
		from:     from,
		to:       to,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Enabled reports whether submissions can be delivered.
func (s *ContactService) Enabled() bool {
	return s.mailer != nil && s.from != "" && s.to != ""
}

// Submit validates req, strips any markup from its text and mails it.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) error {
	if !s.Enabled() {
		return ErrContactDisabled
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.From))
	if err != nil {
		return fmt.Errorf("%w: from address", ErrInvalidContact)
	}
	if !req.Subject.Valid() {
		return fmt.Errorf("%w: subject", ErrInvalidContact)
	}

	body := strings.TrimSpace(s.plain(req.Message))
	if body == "" || len(body) > maxContactMessageLen {
		return fmt.Errorf("%w: message", ErrInvalidContact)
	}
	name := strings.TrimSpace(s.plain(req.Name))

	email := model.Email{
		From:     s.from,
		FromName: "Contact Form",
		ReplyTo:  addr.Address,
		To:       s.to,
		Subject:  "Contact Form - " + string(req.Subject),
		Body:     fmt.Sprintf("From: %s <%s>\nSubject: %s\n\n%s\n", name, addr.Address, req.Subject, body),
	}

	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}

// plain strips markup and decodes the entities the policy leaves behind, as
// the email is sent as plain text.
func (s *ContactService) plain(text string) string {
	return html.UnescapeString(s.sanitize.Sanitize(text))
}
