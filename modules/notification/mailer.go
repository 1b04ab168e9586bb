package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/go-mail/mail/v2"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const sendAttempts = 3

// Message is a templated notification for one recipient.
type Message struct {
	To       string
	Template string
	Data     any
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Channel() string
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer sends templated email over SMTP.
type Mailer struct {
	dialer dialer
	sender string
}

// NewMailer creates a Mailer for the given SMTP server.
func NewMailer(host string, port int, username, password, sender string) *Mailer {
	return &Mailer{
		dialer: mail.NewDialer(host, port, username, password),
		sender: sender,
	}
}

func (m *Mailer) Channel() string {
	return "email"
}

// Send renders msg.Template and delivers it, trying up to three times.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	subject, plainBody, htmlBody, err := render(msg.Template, msg.Data)
	if err != nil {
		return err
	}

	email := mail.NewMessage()
	email.SetHeader("To", msg.To)
	email.SetHeader("From", m.sender)
	email.SetHeader("Subject", subject)
	email.SetBody("text/plain", plainBody)
	email.AddAlternative("text/html", htmlBody)

	for i := 0; i < sendAttempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = m.dialer.DialAndSend(email)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to send email after %d attempts: %w", sendAttempts, err)
}

// LogSender only logs notifications; it stands in when SMTP is not configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Channel() string {
	return "log"
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	subject, _, _, err := render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	s.log.Info("sending fake invitation to email",
		zap.String("to", msg.To),
		zap.String("subject", subject),
	)
	return nil
}

// render executes the subject and plain body as text and the HTML body with
// contextual escaping.
func render(name string, data any) (subject, plainBody, htmlBody string, err error) {
	path := "templates/" + name

	textTmpl, err := template.New("email").ParseFS(templateFS, path)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	htmlTmpl, err := htmltemplate.New("email").ParseFS(templateFS, path)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err = textTmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", "", err
	}
	subject = buf.String()

	buf.Reset()
	if err = textTmpl.ExecuteTemplate(&buf, "plainBody", data); err != nil {
		return "", "", "", err
	}
	plainBody = buf.String()

	buf.Reset()
	if err = htmlTmpl.ExecuteTemplate(&buf, "htmlBody", data); err != nil {
		return "", "", "", err
	}
	htmlBody = buf.String()

	return subject, plainBody, htmlBody, nil
}
