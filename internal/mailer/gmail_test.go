package mailer

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	raw := buildMessage("lead@example.com", "New lead pending approval", "<p>Olá</p>")

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("message is not URL-safe base64: %v", err)
	}

	msg := string(decoded)
	for _, want := range []string{
		"To: lead@example.com\r\n",
		"Subject: New lead pending approval\r\n",
		"Content-Type: text/html",
		"<p>Olá</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	// Headers and body must be separated by a blank line.
	if !strings.Contains(msg, "\r\n\r\n<p>") {
		t.Error("missing blank line between headers and body")
	}
}

func TestNewGmailSender_MissingCredentials(t *testing.T) {
	tests := []struct {
		name                                string
		clientID, clientSecret, refreshToken string
	}{
		{"all empty", "", "", ""},
		{"no client id", "", "secret", "refresh"},
		{"no secret", "id", "", "refresh"},
		{"no refresh token", "id", "secret", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGmailSender(context.Background(), tt.clientID, tt.clientSecret, tt.refreshToken)
			if err != ErrNotConfigured {
				t.Errorf("error = %v, want ErrNotConfigured", err)
			}
		})
	}
}
