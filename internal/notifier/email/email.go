// Package email implements an SMTP-based email notifier
package email

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) (*Email, error) {
	if host == "" || from == "" || len(to) == 0 {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("email: host, from, and to are required"))
	}
	if port == 0 {
		port = 587
	}
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}, nil
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, alert core.Alert) error {
	subject := fmt.Sprintf("INSIGHT Alert: %s %s", alert.Symbol, alert.Rule)
	return e.sendEmail(ctx, subject, formatAlert(alert))
}

func (e *Email) SendBatch(ctx context.Context, alerts []core.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	subject := fmt.Sprintf("INSIGHT Digest: %d alerts", len(alerts))

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>INSIGHT Watchlist Alerts</h2>")
	sb.WriteString(fmt.Sprintf("<p>Generated at: %s</p>", e.now().Format("2006-01-02 15:04:05")))
	sb.WriteString("<hr>")

	for _, alert := range alerts {
		sb.WriteString(formatAlertHTML(alert))
		sb.WriteString("<hr>")
	}

	sb.WriteString("</body></html>")

	return e.sendEmail(ctx, subject, sb.String())
}

func formatAlert(alert core.Alert) string {
	return fmt.Sprintf(`
INSIGHT Watchlist Alert

Symbol: %s
Rule: %s
Severity: %s
Metric: %s = %.2f
Message: %s
Time: %s
`,
		alert.Symbol,
		alert.Rule,
		alert.Severity,
		alert.Metric,
		alert.Value,
		alert.Message,
		alert.FiredAt.Format("2006-01-02 15:04:05"),
	)
}

func severityColor(s core.Severity) string {
	switch s {
	case core.SeverityCritical:
		return "#dc3545"
	case core.SeverityWarning:
		return "#fd7e14"
	default:
		return "#0d6efd"
	}
}

func formatAlertHTML(alert core.Alert) string {
	return fmt.Sprintf(`
<div style="margin: 10px 0;">
  <h3 style="color: %s;">%s - %s</h3>
  <p><strong>%s:</strong> %.2f</p>
  <p>%s</p>
  <p><small>%s</small></p>
</div>
`,
		severityColor(alert.Severity),
		html.EscapeString(alert.Symbol),
		html.EscapeString(alert.Rule),
		html.EscapeString(alert.Metric),
		alert.Value,
		html.EscapeString(alert.Message),
		alert.FiredAt.Format("2006-01-02 15:04:05"),
	)
}

func (e *Email) buildMessage(subject, body string) []byte {
	contentType := "text/plain"
	if strings.Contains(body, "<html>") {
		contentType = "text/html"
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(e.to, ","),
		subject,
		contentType,
		body,
	)
	return []byte(msg)
}

// sendEmail checks ctx before dialing; net/smtp itself is not cancellable.
func (e *Email) sendEmail(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	if err := e.sendMail(addr, auth, e.from, e.to, e.buildMessage(subject, body)); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}
