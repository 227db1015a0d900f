package notifications

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig holds the OAuth client and refresh token for the sending account.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailSender delivers email through the Gmail API as the authorized account.
type GmailSender struct {
	service *gmail.Service
}

// NewGmailSender creates a Gmail sender from an OAuth refresh token.
func NewGmailSender(ctx context.Context, cfg GmailConfig) (*GmailSender, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("gmail sender requires client id, client secret and refresh token")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
		Expiry:       time.Now(), // force a refresh on first use
	}

	service, err := gmail.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSender{service: service}, nil
}

func (s *GmailSender) Send(ctx context.Context, email Email) error {
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(rfc822(email))}
	if _, err := s.service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send to %s: %w", email.To, err)
	}
	return nil
}

func rfc822(email Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + email.From + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", email.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	return []byte(b.String())
}
