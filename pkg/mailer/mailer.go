// Package mailer sends transactional email. Services format their own
// subjects and bodies; this package only knows how to deliver them.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mailer delivers a single HTML email
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends email over an authenticated SMTP connection
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer that delivers via SMTP
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers one message. The body is sent as HTML.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}

	headers := []string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := m.host + ":" + m.port

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}

// DevMailer logs messages instead of sending them. Used in development so
// OTP codes and reset links show up in the server log.
type DevMailer struct {
	logger *logrus.Logger
}

// NewDevMailer creates a logging mailer
func NewDevMailer(logger *logrus.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

// Send logs the message and returns nil
func (m *DevMailer) Send(to, subject, htmlBody string) error {
	m.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("Email (dev mode, not sent)")

	return nil
}
