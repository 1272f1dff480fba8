package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
)

// SMTPMailer sends plain-text mail over authenticated SMTP. Delivery is
// synchronous; callers decide whether a failure matters.
type SMTPMailer struct {
	config utils.EmailConfig
	log    *zap.Logger
}

func NewSMTPMailer(config utils.EmailConfig, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		log:    log.With(zap.String("component", "mailer")),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		m.config.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.User != "" {
		auth = smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	}

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		m.log.Error("Failed to send email",
			zap.Error(err), zap.String("to", to), zap.String("subject", subject))
		return err
	}
	m.log.Debug("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
