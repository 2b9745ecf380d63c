// Package transport abstracts the external transactional-email providers.
//
// A Sender accepts one fully-rendered message and either delivers it,
// returning the provider message id, or fails with an error. Senders hold no
// application state; retries and outcome recording are the dispatch
// service's responsibility.
package transport

import (
	"context"
	"time"
)

// Message is a rendered email handed to a provider. All template work is
// done before a message reaches this struct.
type Message struct {
	To           string
	ToName       string
	FromName     string
	FromEmail    string
	ReplyTo      string
	Subject      string
	HTML         string
	NewsletterID string
	SubscriberID string
}

// Result is returned by a Sender after the provider accepted the message.
type Result struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers a single email through an external provider.
// Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*Result, error)
}

// FromAddress formats a display-name sender address ("Name <email>").
func FromAddress(name, email string) string {
	if name == "" {
		return email
	}
	return name + " <" + email + ">"
}
