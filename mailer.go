package accounts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/goliatone/go-errors"
)

// SMTPMailer delivers account emails over a plain SMTP relay. No queueing,
// no retries: a failed send surfaces to the caller as an upstream error.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func (m *SMTPMailer) Send(ctx context.Context, to, link, subject string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		fmt.Sprintf(`<p>%s</p><p><a href=%q>%s</a></p>`, subject, link, link),
	}, "\r\n")

	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, ErrUpstreamFailure.Category, ErrUpstreamFailure.Message).
			WithTextCode(ErrUpstreamFailure.TextCode)
	}
	return nil
}

// LogMailer writes the notification to the logger instead of sending it.
// Default collaborator for development and tests.
type LogMailer struct {
	Logger Logger
}

func (m *LogMailer) Send(ctx context.Context, to, link, subject string) error {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("Email notification", "to", to, "subject", subject, "link", link)
	return nil
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
