package mail

import (
	"appointease/cmd/internal/config"
	"context"
	"fmt"
	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer talks SMTP, e.g. to mailpit during development. STARTTLS is
// used when the server offers it.
type SMTPMailer struct {
	from     string
	fromName string
	opts     []gomail.Option
	host     string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	opts := []gomail.Option{
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithPort(cfg.SMTPPort),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	return &SMTPMailer{
		from:     cfg.From,
		fromName: cfg.FromName,
		opts:     opts,
		host:     cfg.SMTPHost,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp client for %s: %w", s.host, err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// build assembles a multipart/alternative message. Header values are
// encoded by go-mail, so control characters never reach the raw headers.
func (s *SMTPMailer) build(msg *Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if s.fromName != "" {
		if err := m.FromFormat(s.fromName, s.from); err != nil {
			return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
		}
	} else if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}
