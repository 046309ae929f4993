package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/notifier"
)

type sent struct {
	addr string
	auth smtp.Auth
	to   []string
	msg  string
}

func newTestEmail(t *testing.T, username string) (*Email, *[]sent) {
	t.Helper()
	e, err := New("smtp.example.com", 0, username, "secret", "insight@example.com", []string{"to@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var log []sent
	e.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		log = append(log, sent{addr: addr, auth: a, to: to, msg: string(msg)})
		return nil
	}
	e.now = func() time.Time { return time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC) }
	return e, &log
}

func TestEmail_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Email)(nil)
}

func TestEmail_Name(t *testing.T) {
	e, _ := newTestEmail(t, "")
	if e.Name() != "email" {
		t.Errorf("expected 'email', got %s", e.Name())
	}
}

func TestEmail_New_RequiredFields(t *testing.T) {
	_, err := New("", 587, "", "", "", nil)
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestEmail_Send(t *testing.T) {
	e, log := newTestEmail(t, "")

	alert := core.Alert{
		Symbol:   "TCS.NS",
		Rule:     "rsi_overbought",
		Severity: core.SeverityWarning,
		Metric:   "rsi",
		Value:    74.5,
		Message:  "RSI above 70",
		FiredAt:  time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC),
	}
	if err := e.Send(context.Background(), alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*log) != 1 {
		t.Fatalf("expected 1 message, got %d", len(*log))
	}
	got := (*log)[0]
	if got.addr != "smtp.example.com:587" {
		t.Errorf("expected default port 587, got %s", got.addr)
	}
	if got.auth != nil {
		t.Error("auth should be nil without username")
	}
	for _, want := range []string{
		"Subject: INSIGHT Alert: TCS.NS rsi_overbought",
		"Content-Type: text/plain",
		"Metric: rsi = 74.50",
		"Severity: warning",
	} {
		if !strings.Contains(got.msg, want) {
			t.Errorf("message should contain %q", want)
		}
	}
}

func TestEmail_SendBatch(t *testing.T) {
	e, log := newTestEmail(t, "user")

	alerts := []core.Alert{
		{Symbol: "TCS.NS", Rule: "rsi_overbought", Severity: core.SeverityCritical, FiredAt: time.Now()},
		{Symbol: "INFY.NS", Rule: "bearish_news", Message: "<b>bad</b>", FiredAt: time.Now()},
	}
	if err := e.SendBatch(context.Background(), alerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := (*log)[0]
	if got.auth == nil {
		t.Error("expected plain auth with username")
	}
	if !strings.Contains(got.msg, "Subject: INSIGHT Digest: 2 alerts") {
		t.Error("missing digest subject")
	}
	if !strings.Contains(got.msg, "Content-Type: text/html") {
		t.Error("batch should be html")
	}
	if !strings.Contains(got.msg, "#dc3545") {
		t.Error("critical alert should use red color")
	}
	if !strings.Contains(got.msg, "&lt;b&gt;bad&lt;/b&gt;") {
		t.Error("message should be html-escaped")
	}
}

func TestEmail_SendBatch_Empty(t *testing.T) {
	e, log := newTestEmail(t, "")

	if err := e.SendBatch(context.Background(), []core.Alert{}); err != nil {
		t.Errorf("empty batch should not error: %v", err)
	}
	if len(*log) != 0 {
		t.Error("empty batch should not send")
	}
}

func TestEmail_Send_Canceled(t *testing.T) {
	e, log := newTestEmail(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Send(ctx, core.Alert{Symbol: "TCS.NS"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(*log) != 0 {
		t.Error("canceled send should not dial")
	}
}

func TestEmail_SendError(t *testing.T) {
	e, _ := newTestEmail(t, "")
	e.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := e.Send(context.Background(), core.Alert{Symbol: "TCS.NS"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected wrapped send error, got %v", err)
	}
}
