// Package notifications composes and delivers the scheduling emails.
package notifications

import (
	"context"
	"net/mail"
)

// Email is a plain-text message ready for delivery.
type Email struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers composed emails.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email Email) error

func (f SenderFunc) Send(ctx context.Context, email Email) error { return f(ctx, email) }

// FormatAddress renders a From header value. Non-ASCII names are encoded.
func FormatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}
