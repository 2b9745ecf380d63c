package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v3"
)

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a Resend-backed sender.
func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg *Message) (*Result, error) {
	req := &resend.SendEmailRequest{
		From:    FromAddress(msg.FromName, msg.FromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
	if msg.NewsletterID != "" {
		req.Tags = []resend.Tag{
			{Name: "newsletter_id", Value: msg.NewsletterID},
		}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resend: %w", err)
	}

	return &Result{MessageID: sent.Id, SentAt: time.Now().UTC()}, nil
}
