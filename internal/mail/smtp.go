package mail

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/pmarceau/trove/internal/config"
	"gopkg.in/gomail.v2"
)

// SMTPDispatcher sends notifications through an SMTP relay.
type SMTPDispatcher struct {
	cfg *config.Config
}

func NewSMTPDispatcher(cfg *config.Config) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg}
}

func (d *SMTPDispatcher) Dispatch(msg Message) error {
	if d.cfg.SMTPHost == "" || d.cfg.FromEmail == "" {
		slog.Warn("smtp config missing, skip notification", "template", msg.TemplateKey)
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		slog.Warn("email recipient empty, skip notification", "template", msg.TemplateKey)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.cfg.FromEmail)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", renderBody(msg))
	for _, attachment := range msg.Attachments {
		m.Attach(attachment)
	}

	dialer := gomail.NewDialer(d.cfg.SMTPHost, d.cfg.SMTPPort, d.cfg.SMTPUser, d.cfg.SMTPPass)
	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	slog.Info("email notification sent", "to", msg.To, "template", msg.TemplateKey)
	return nil
}

func renderBody(msg Message) string {
	switch msg.TemplateKey {
	case TemplateUnlockedMemory:
		return renderUnlockedMemory(msg)
	default:
		return fmt.Sprintf("<p>%s</p>", html.EscapeString(msg.Subject))
	}
}

func renderUnlockedMemory(msg Message) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f6f7fb; color: #1f2937;">
  <div style="max-width: 600px; margin: 24px auto; background: #ffffff; border-radius: 12px; border: 1px solid #e5e7eb; padding: 24px;">
`)
	fmt.Fprintf(&b, "    <h2>%s %s</h2>\n",
		html.EscapeString(msg.Context["mood_glyph"]), html.EscapeString(msg.Context["title"]))
	for _, line := range strings.Split(msg.Context["content"], "\n") {
		fmt.Fprintf(&b, "    <p>%s</p>\n", html.EscapeString(line))
	}
	b.WriteString(`  </div>
</body>
</html>`)
	return b.String()
}
