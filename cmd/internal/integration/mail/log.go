package mail

import (
	"context"
	"github.com/labstack/gommon/log"
)

// LogMailer only logs the message. Used when no transport is configured.
type LogMailer struct{}

func (l *LogMailer) Send(_ context.Context, msg *Message) error {
	log.Infof("mail (log driver) to=%s subject=%q", msg.To, msg.Subject)
	return nil
}
