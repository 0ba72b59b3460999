// Package mail abstracts email delivery behind a small interface so
// the notification module never depends on a concrete provider.
package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic email payload.
type Message struct {
	// From is an optional explicit sender; implementations fall back
	// to their configured default.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML body.
	HTMLBody string
}

// Mail delivers messages through some provider (SMTP, API, etc).
type Mail interface {
	io.Closer
	// Send dispatches the message.
	Send(ctx context.Context, msg Message) error
}
