package reminder

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/ac4-shift-planner/backend/internal/mailer"
	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// Mailer delivers one rendered message. mailer.SMTPMailer implements it;
// tests substitute a recording fake.
type Mailer interface {
	Send(ctx context.Context, msg *mailer.Message) error
}

// mailParams is the data passed to the subject and body templates.
type mailParams struct {
	Name        string
	Summary     string
	StartsAt    string
	Lead        string
	Location    string
	Description string
}

// defaultHTMLTemplate is the HTML body for reminder emails.
const defaultHTMLTemplate = `<html>
<body style="font-family: sans-serif; color: #222;">
<p>Hi {{.Name}},</p>
<p>Your shift <strong>{{.Summary}}</strong> starts in {{.Lead}}.</p>
<p><strong>Start:</strong> {{.StartsAt}}</p>
{{if .Location}}<p><strong>Location:</strong> {{.Location}}</p>{{end}}
{{if .Description}}<p>{{.Description}}</p>{{end}}
<p>Good duty!</p>
</body>
</html>
`

// defaultTextTemplate is the plain-text alternative.
const defaultTextTemplate = `Hi {{.Name}},

Your shift "{{.Summary}}" starts in {{.Lead}}.

Start: {{.StartsAt}}
{{if .Location}}Location: {{.Location}}
{{end}}{{if .Description}}{{.Description}}
{{end}}
Good duty!
`

// Dispatcher renders and sends reminder emails. It performs exactly one
// delivery attempt per call; the caller records success in the ledger.
type Dispatcher struct {
	mailer      Mailer
	fromAddress string
	fromName    string
	htmlTmpl    *htmltemplate.Template
	textTmpl    *texttemplate.Template
}

// NewDispatcher creates a dispatcher using the default templates.
func NewDispatcher(m Mailer, fromAddress, fromName string) *Dispatcher {
	return &Dispatcher{
		mailer:      m,
		fromAddress: fromAddress,
		fromName:    fromName,
		htmlTmpl:    htmltemplate.Must(htmltemplate.New("reminder_html").Parse(defaultHTMLTemplate)),
		textTmpl:    texttemplate.Must(texttemplate.New("reminder_text").Parse(defaultTextTemplate)),
	}
}

// Send renders and delivers one reminder email. A transport failure is
// returned without marking anything; the reminder stays eligible only
// while its window lasts.
func (d *Dispatcher) Send(ctx context.Context, user *models.User, event models.CalendarEvent, t models.ReminderType) error {
	msg, err := d.render(user, event, t)
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, msg)
}

func (d *Dispatcher) render(user *models.User, event models.CalendarEvent, t models.ReminderType) (*mailer.Message, error) {
	name := user.Email
	if user.DisplayName != nil && *user.DisplayName != "" {
		name = *user.DisplayName
	}

	params := mailParams{
		Name:        name,
		Summary:     event.Summary,
		Lead:        t.Label(),
		Location:    event.Location,
		Description: event.Description,
	}
	if event.Start.Timed() {
		// Keep the event's own zone so the officer reads local shift time.
		params.StartsAt = event.Start.At.Format("Mon, 02 Jan 2006 15:04 (MST)")
	}

	var html bytes.Buffer
	if err := d.htmlTmpl.Execute(&html, params); err != nil {
		return nil, fmt.Errorf("rendering html body: %w", err)
	}

	var text bytes.Buffer
	if err := d.textTmpl.Execute(&text, params); err != nil {
		return nil, fmt.Errorf("rendering text body: %w", err)
	}

	subject := fmt.Sprintf("Shift reminder: %s in %s", event.Summary, t.Label())
	if params.StartsAt != "" {
		subject = fmt.Sprintf("Shift reminder: %s at %s (in %s)", event.Summary, params.StartsAt, t.Label())
	}

	return &mailer.Message{
		FromAddress: d.fromAddress,
		FromName:    d.fromName,
		To:          user.Email,
		Subject:     subject,
		HTML:        html.String(),
		Text:        text.String(),
	}, nil
}
