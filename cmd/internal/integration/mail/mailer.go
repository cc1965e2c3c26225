// Package mail sends transactional email through a configurable transport.
package mail

import (
	"appointease/cmd/internal/config"
	"context"
	"fmt"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// New builds the mailer selected by MAIL_DRIVER.
func New(ctx context.Context, cfg config.MailConfig) (Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return &LogMailer{}, nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "ses":
		return NewSESMailer(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

func formatFrom(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
