// Package mailer sends template-driven notification emails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/mail"
	"net/smtp"
	"path/filepath"
	"time"

	"intern_certify_v1/config"
	"intern_certify_v1/model"
	"intern_certify_v1/render"
	"intern_certify_v1/repository"

	"github.com/jordan-wright/email"
)

var ErrTemplateNotFound = errors.New("email template not found")

// Notification is one email. Subject and HTML, when both set, are used as
// is; otherwise the template is resolved by TemplateKey, then TemplateType.
type Notification struct {
	To           string
	TemplateKey  string
	TemplateType string
	Subject      string
	HTML         string
	Vars         map[string]any
	Attachments  []string
}

type TemplateStore interface {
	FindByKey(ctx context.Context, key string) (*model.EmailTemplate, error)
	FindByType(ctx context.Context, typ string) (*model.EmailTemplate, error)
}

// Transport delivers a built message. *email.Pool satisfies it.
type Transport interface {
	Send(e *email.Email, timeout time.Duration) error
}

type Sender struct {
	templates TemplateStore
	transport Transport
	from      string
	timeout   time.Duration
}

func NewSender(templates TemplateStore, transport Transport, fromName, fromAddress string, timeout time.Duration) *Sender {
	from := fromAddress
	if fromName != "" && fromAddress != "" {
		from = (&mail.Address{Name: fromName, Address: fromAddress}).String()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{templates: templates, transport: transport, from: from, timeout: timeout}
}

// NewSMTPPool dials nothing up front; connections are opened on first send
// and upgraded with STARTTLS when the server offers it.
func NewSMTPPool(cfg *config.Config) (*email.Pool, error) {
	host, _, err := net.SplitHostPort(cfg.SMTPAddr())
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP address: %w", err)
	}
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, host)
	return email.NewPool(cfg.SMTPAddr(), 4, auth)
}

func (s *Sender) Send(ctx context.Context, n Notification) error {
	if n.To == "" {
		return errors.New("notification has no recipient")
	}

	subject, body, err := s.resolve(ctx, n)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{n.To}
	e.Subject = render.Fill(subject, n.Vars)
	e.HTML = []byte(render.Fill(body, n.Vars))
	for _, path := range n.Attachments {
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("attaching %s: %w", filepath.Base(path), err)
		}
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.transport.Send(e, timeout); err != nil {
		return fmt.Errorf("sending email (key %q, type %q) to %s: %w", n.TemplateKey, n.TemplateType, n.To, err)
	}
	log.Printf("[MAILER] sent %q to %s", e.Subject, n.To)
	return nil
}

func (s *Sender) resolve(ctx context.Context, n Notification) (string, string, error) {
	if n.Subject != "" && n.HTML != "" {
		return n.Subject, n.HTML, nil
	}

	if n.TemplateKey != "" {
		tmpl, err := s.templates.FindByKey(ctx, n.TemplateKey)
		if err == nil {
			return tmpl.Subject, tmpl.HTML, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", "", fmt.Errorf("loading email template %q: %w", n.TemplateKey, err)
		}
	}
	if n.TemplateType != "" {
		tmpl, err := s.templates.FindByType(ctx, n.TemplateType)
		if err == nil {
			return tmpl.Subject, tmpl.HTML, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", "", fmt.Errorf("loading email template of type %q: %w", n.TemplateType, err)
		}
	}
	return "", "", fmt.Errorf("%w: key %q, type %q", ErrTemplateNotFound, n.TemplateKey, n.TemplateType)
}
