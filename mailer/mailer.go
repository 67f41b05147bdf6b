// Package mailer delivers transactional email such as password resets.
package mailer

import (
	"context"

	"food-delivery-platform/config"
	"food-delivery-platform/logging"

	"github.com/sirupsen/logrus"
)

const (
	DriverLog = "log"
	DriverSES = "ses"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    body,
	}).Info("email (log mailer)")
	return nil
}

// New picks the transport named by cfg.Driver.
func New(ctx context.Context, cfg config.MailConfig, log *logrus.Logger) (Mailer, error) {
	switch cfg.Driver {
	case DriverSES:
		log.Info("initializing SES mailer")
		return NewSESMailer(ctx, cfg)
	default:
		log.Info("initializing log mailer")
		return LogMailer{}, nil
	}
}
