// Package mailer sends transactional email through the Gmail API using an
// OAuth2 refresh token.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrNotConfigured means the Gmail OAuth credentials are missing. Handlers
// report it as a configuration error.
var ErrNotConfigured = errors.New("mailer: gmail credentials not configured")

// Sender sends an HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// GmailSender sends mail through the Gmail API as the connected account.
// The oauth2 token source caches the short-lived access token and only
// exchanges the refresh token when it expires, so repeated sends in one
// process share a token instead of re-exchanging per call.
type GmailSender struct {
	service *gmail.Service
}

// NewGmailSender creates a sender from an OAuth2 client and refresh token.
func NewGmailSender(ctx context.Context, clientID, clientSecret, refreshToken string) (*GmailSender, error) {
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, ErrNotConfigured
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("NewGmailSender: create gmail service: %w", err)
	}

	return &GmailSender{service: service}, nil
}

// Send implements Sender.
func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	raw := buildMessage(to, subject, htmlBody)

	_, err := s.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("Send: gmail send to %s: %w", to, err)
	}

	return nil
}

// buildMessage assembles an RFC 2822 HTML message and encodes it the way
// the Gmail API expects (URL-safe base64, no padding).
func buildMessage(to, subject, htmlBody string) string {
	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}

// Disabled is a Sender for deployments without Gmail credentials; every
// send reports ErrNotConfigured, which callers treat as a skipped
// notification.
type Disabled struct{}

// Send implements Sender.
func (Disabled) Send(ctx context.Context, to, subject, htmlBody string) error {
	return ErrNotConfigured
}

var (
	_ Sender = (*GmailSender)(nil)
	_ Sender = Disabled{}
)
