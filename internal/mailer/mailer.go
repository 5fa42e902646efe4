package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/config"
)

// Mailer delivers the password-reset code out-of-band. The rest of the
// system treats delivery as an opaque capability.
type Mailer interface {
	SendResetCode(ctx context.Context, recipient, code string) error
}

const resetSubject = "Password Reset Code"

const resetBodyFormat = `Your password reset code is: %s

This code is valid for 10 minutes. Please use it promptly.

If you did not request this, please ignore this email.`

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	config config.MailConfig
	log    *zap.Logger
}

func NewSMTPMailer(cfg config.MailConfig, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		log:    log,
	}
}

func (m *SMTPMailer) SendResetCode(ctx context.Context, recipient, code string) error {
	host, _, err := net.SplitHostPort(m.config.SMTPAddr)
	if err != nil {
		return fmt.Errorf("invalid smtp_addr (expected host:port): %w", err)
	}

	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, host)

	body := fmt.Sprintf(resetBodyFormat, code)
	msg := []byte("To: " + recipient + "\r\n" +
		"From: " + m.config.From + "\r\n" +
		"Subject: " + resetSubject + "\r\n\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(m.config.SMTPAddr, auth, m.config.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	m.log.Info("reset code mail sent", zap.String("recipient", recipient))
	return nil
}
