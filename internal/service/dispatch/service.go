package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/pkg/logger"
	"github.com/inkwell/newsletter-platform/internal/render"
	"github.com/inkwell/newsletter-platform/internal/transport"
)

// DefaultMaxConcurrent bounds simultaneous transport calls during a batch
// send when no explicit limit is configured.
const DefaultMaxConcurrent = 32

// TargetMode selects how a dispatch request names its recipients.
type TargetMode string

const (
	// TargetAll sends to every active subscriber of the newsletter's owner.
	TargetAll TargetMode = "all"
	// TargetSelected sends to an explicit subscriber id list.
	TargetSelected TargetMode = "selected"
)

// Target specifies the recipient set of a batch send.
type Target struct {
	Mode          TargetMode
	SubscriberIDs []string
}

// RecipientResult is the per-recipient outcome of a batch send.
type RecipientResult struct {
	SubscriberID string `json:"subscriberId"`
	Email        string `json:"email"`
	Success      bool   `json:"success"`
	MessageID    string `json:"messageId,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchResult summarizes a batch send. Total always equals the resolved
// recipient count, and Successful+Failed always equals Total.
type BatchResult struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Results    []RecipientResult `json:"results"`
}

// Config holds sender identity and executor tuning.
type Config struct {
	FromName  string
	FromEmail string
	ReplyTo   string

	// MaxConcurrent caps in-flight transport calls per batch. Zero means
	// DefaultMaxConcurrent; negative means unlimited.
	MaxConcurrent int
}

// Service coordinates recipient resolution, rendering, transport, and the
// delivery ledger. Safe for concurrent use if its dependencies are.
type Service struct {
	newsletters NewsletterRepository
	subscribers SubscriberRepository
	ledger      Ledger
	renderer    Renderer
	sender      transport.Sender
	cfg         Config
}

// NewService creates a dispatch service.
func NewService(
	newsletters NewsletterRepository,
	subscribers SubscriberRepository,
	ledger Ledger,
	renderer Renderer,
	sender transport.Sender,
	cfg Config,
) *Service {
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Service{
		newsletters: newsletters,
		subscribers: subscribers,
		ledger:      ledger,
		renderer:    renderer,
		sender:      sender,
		cfg:         cfg,
	}
}

// resolve turns a target specification into the concrete recipient list.
// The result is deduplicated by subscriber id and contains only active
// subscribers owned by ownerID.
func (s *Service) resolve(ctx context.Context, ownerID string, target Target) ([]domain.Subscriber, error) {
	var (
		subs []domain.Subscriber
		err  error
	)

	switch target.Mode {
	case TargetAll:
		subs, err = s.subscribers.ListActive(ctx, ownerID)
	case TargetSelected:
		if len(target.SubscriberIDs) == 0 {
			return nil, ErrEmptySelection
		}
		subs, err = s.subscribers.ListActiveByIDs(ctx, ownerID, target.SubscriberIDs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve recipients: %w", err)
	}

	seen := make(map[string]struct{}, len(subs))
	out := subs[:0]
	for _, sub := range subs {
		if _, dup := seen[sub.ID]; dup {
			continue
		}
		seen[sub.ID] = struct{}{}
		out = append(out, sub)
	}

	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	return out, nil
}

// SendBatch dispatches a newsletter to the resolved recipient set. Recipient
// resolution failures abort before any transport call; after that the batch
// always settles completely and returns a summary, even if every attempt
// failed. Per-recipient outcomes are written to the ledger as they settle.
func (s *Service) SendBatch(ctx context.Context, ownerID, newsletterID string, target Target) (*BatchResult, error) {
	n, err := s.newsletters.Get(ctx, ownerID, newsletterID)
	if err != nil {
		return nil, err
	}

	recipients, err := s.resolve(ctx, ownerID, target)
	if err != nil {
		return nil, err
	}

	results := make([]RecipientResult, len(recipients))

	g := &errgroup.Group{}
	if s.cfg.MaxConcurrent > 0 {
		g.SetLimit(s.cfg.MaxConcurrent)
	}
	for i := range recipients {
		g.Go(func() error {
			// Attempts are isolated: attempt never returns an error, so one
			// recipient's failure cannot cancel the group.
			results[i] = s.attempt(ctx, n, &recipients[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; Wait only synchronizes

	summary := &BatchResult{
		Total:   len(recipients),
		Results: results,
	}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	logger.Info("batch send complete",
		"newsletter_id", newsletterID,
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)
	return summary, nil
}

// attempt renders, sends, and ledgers one recipient. The ledger write runs
// only after the transport call has settled. A ledger-write failure after a
// successful send is logged but does not flip the outcome: delivery already
// happened.
func (s *Service) attempt(ctx context.Context, n *domain.Newsletter, sub *domain.Subscriber) RecipientResult {
	result := RecipientResult{SubscriberID: sub.ID, Email: sub.Email}

	msg, err := s.renderer.Render(n, sub)
	if err != nil {
		result.Error = err.Error()
		s.recordFailure(ctx, n.ID, sub.ID, err)
		return result
	}

	sent, err := s.sender.Send(ctx, &transport.Message{
		To:           sub.Email,
		ToName:       sub.Name,
		FromName:     s.cfg.FromName,
		FromEmail:    s.cfg.FromEmail,
		ReplyTo:      s.cfg.ReplyTo,
		Subject:      msg.Subject,
		HTML:         msg.HTML,
		NewsletterID: n.ID,
		SubscriberID: sub.ID,
	})
	if err != nil {
		result.Error = err.Error()
		s.recordFailure(ctx, n.ID, sub.ID, err)
		return result
	}

	sentAt := sent.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	if err := s.ledger.Record(ctx, &domain.DeliveryAttempt{
		NewsletterID: n.ID,
		SubscriberID: sub.ID,
		Status:       domain.DeliverySent,
		MessageID:    sent.MessageID,
		SentAt:       &sentAt,
	}); err != nil {
		logger.Warn("ledger write failed after successful send",
			"newsletter_id", n.ID, "subscriber_id", sub.ID, "error", err.Error())
	}

	result.Success = true
	result.MessageID = sent.MessageID
	return result
}

func (s *Service) recordFailure(ctx context.Context, newsletterID, subscriberID string, cause error) {
	if err := s.ledger.Record(ctx, &domain.DeliveryAttempt{
		NewsletterID: newsletterID,
		SubscriberID: subscriberID,
		Status:       domain.DeliveryFailed,
		ErrorMessage: cause.Error(),
	}); err != nil {
		logger.Error("ledger write failed for failed attempt",
			"newsletter_id", newsletterID, "subscriber_id", subscriberID, "error", err.Error())
	}
}

// SendSingle sends one newsletter to one recipient synchronously and returns
// the provider message id. With a subscriber id the outcome is ledgered on
// success only; transport rejection surfaces as an error with no ledger row.
// With a test email address no ledger row is ever written: there is no
// subscriber to attribute it to.
func (s *Service) SendSingle(ctx context.Context, ownerID, newsletterID, subscriberID, testEmail string) (string, error) {
	n, err := s.newsletters.Get(ctx, ownerID, newsletterID)
	if err != nil {
		return "", err
	}

	var sub *domain.Subscriber
	isTest := testEmail != ""
	if isTest {
		if !render.IsValidEmail(testEmail) {
			return "", ErrInvalidTestEmail
		}
		sub = TestSubscriber(ownerID, testEmail)
	} else {
		sub, err = s.subscribers.Get(ctx, ownerID, subscriberID)
		if err != nil {
			return "", err
		}
	}

	msg, err := s.renderer.Render(n, sub)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	sent, err := s.sender.Send(ctx, &transport.Message{
		To:           sub.Email,
		ToName:       sub.Name,
		FromName:     s.cfg.FromName,
		FromEmail:    s.cfg.FromEmail,
		ReplyTo:      s.cfg.ReplyTo,
		Subject:      msg.Subject,
		HTML:         msg.HTML,
		NewsletterID: n.ID,
		SubscriberID: sub.ID,
	})
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}

	if !isTest {
		sentAt := sent.SentAt
		if sentAt.IsZero() {
			sentAt = time.Now().UTC()
		}
		if err := s.ledger.Record(ctx, &domain.DeliveryAttempt{
			NewsletterID: n.ID,
			SubscriberID: sub.ID,
			Status:       domain.DeliverySent,
			MessageID:    sent.MessageID,
			SentAt:       &sentAt,
		}); err != nil {
			logger.Warn("ledger write failed after successful send",
				"newsletter_id", n.ID, "subscriber_id", sub.ID, "error", err.Error())
		}
	}

	return sent.MessageID, nil
}

// Attempts returns the delivery ledger for a newsletter, after verifying the
// caller owns it.
func (s *Service) Attempts(ctx context.Context, ownerID, newsletterID string) ([]domain.DeliveryAttempt, error) {
	if _, err := s.newsletters.Get(ctx, ownerID, newsletterID); err != nil {
		return nil, err
	}
	return s.ledger.ListByNewsletter(ctx, newsletterID)
}

// TestSubscriber builds the synthetic, non-persisted subscriber used for
// ad-hoc test sends.
func TestSubscriber(ownerID, email string) *domain.Subscriber {
	return &domain.Subscriber{
		ID:           "test",
		OwnerID:      ownerID,
		Email:        email,
		Name:         "Test Recipient",
		IsActive:     true,
		SubscribedAt: time.Now().UTC(),
	}
}
