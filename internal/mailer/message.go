// Package mailer renders and delivers outbound email over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message is one fully rendered outbound email. Every dispatch carries
// both an HTML and a plain-text body.
type Message struct {
	FromAddress string
	FromName    string
	To          string
	Subject     string
	HTML        string
	Text        string
}

// Bytes encodes the message as a multipart/alternative MIME document.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: m.FromName, Address: m.FromAddress}})
	h.SetAddressList("To", []*mail.Address{{Address: m.To}})
	h.SetSubject(m.Subject)

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating inline writer: %w", err)
	}

	// Plain text first; readers prefer the last alternative they support.
	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	tw, err := iw.CreatePart(th)
	if err != nil {
		return nil, fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(tw, m.Text); err != nil {
		return nil, fmt.Errorf("writing text part: %w", err)
	}
	tw.Close()

	var hh mail.InlineHeader
	hh.Set("Content-Type", "text/html; charset=utf-8")
	hw, err := iw.CreatePart(hh)
	if err != nil {
		return nil, fmt.Errorf("creating html part: %w", err)
	}
	if _, err := io.WriteString(hw, m.HTML); err != nil {
		return nil, fmt.Errorf("writing html part: %w", err)
	}
	hw.Close()

	iw.Close()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing message: %w", err)
	}

	return buf.Bytes(), nil
}
