package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSendComposesMessage(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	notifier := NewSMTPNotifier(Config{
		Addr:     "mail.example.org:587",
		From:     "publisher@example.org",
		Username: "mailer",
		Password: "hunter2",
	})
	notifier.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, auth, from, to, msg
		return nil
	}

	err := notifier.Send(context.Background(), "alex@example.org", "New event request", "Line one.\nLine two.")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAddr != "mail.example.org:587" || gotFrom != "publisher@example.org" {
		t.Fatalf("relay = %q from = %q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "alex@example.org" {
		t.Fatalf("recipients = %v", gotTo)
	}
	if gotAuth == nil {
		t.Fatal("expected PLAIN auth when credentials are set")
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"From: publisher@example.org\r\n",
		"To: alex@example.org\r\n",
		"Subject: New event request\r\n",
		"\r\n\r\nLine one.\r\nLine two.\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSendWithoutCredentialsSkipsAuth(t *testing.T) {
	t.Parallel()

	notifier := NewSMTPNotifier(Config{Addr: "mail.example.org:25", From: "publisher@example.org"})
	var gotAuth smtp.Auth = smtp.PlainAuth("", "sentinel", "", "")
	notifier.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAuth = auth
		return nil
	}

	if err := notifier.Send(context.Background(), "alex@example.org", "s", "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != nil {
		t.Fatal("expected nil auth without credentials")
	}
}

func TestSendWrapsRelayError(t *testing.T) {
	t.Parallel()

	relayErr := errors.New("connection refused")
	notifier := NewSMTPNotifier(Config{Addr: "mail.example.org:25", From: "publisher@example.org"})
	notifier.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		return relayErr
	}

	err := notifier.Send(context.Background(), "alex@example.org", "s", "b")
	if !errors.Is(err, relayErr) {
		t.Fatalf("error = %v, want wrapped relay error", err)
	}
	if !strings.Contains(err.Error(), "alex@example.org") {
		t.Fatalf("error = %v, want recipient in message", err)
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	notifier := NewSMTPNotifier(Config{Addr: "mail.example.org:25", From: "publisher@example.org"})
	called := false
	notifier.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := notifier.Send(ctx, "alex@example.org", "s", "b"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("relay should not be contacted after cancellation")
	}
}
