package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPMailer delivers messages through a single SMTP submission endpoint.
// It is constructed once at process start and shared by reference; it
// holds no mutable state.
type SMTPMailer struct {
	addr     string
	username string
	password string
}

// NewSMTPMailer creates a mailer for the given SMTP host and port.
func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		username: username,
		password: password,
	}
}

// Send attempts one delivery. Transport failures are returned to the
// caller unretried; the reminder pipeline treats them as a per-reminder
// error and leaves the ledger untouched.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	var auth sasl.Client
	if m.username != "" {
		auth = sasl.NewPlainClient("", m.username, m.password)
	}

	if err := smtp.SendMail(m.addr, auth, msg.FromAddress, []string{msg.To}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}

	return nil
}
