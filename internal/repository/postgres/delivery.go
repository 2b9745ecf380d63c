package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkwell/newsletter-platform/internal/domain"
)

// DeliveryRepo implements the dispatch service's ledger against the
// newsletter_sends table. Rows are append-only: every attempt gets its own
// row, including retries for the same recipient.
type DeliveryRepo struct{ db *sql.DB }

// NewDeliveryRepo creates a Postgres-backed delivery ledger.
func NewDeliveryRepo(db *sql.DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

func (r *DeliveryRepo) Record(ctx context.Context, a *domain.DeliveryAttempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_sends (id, newsletter_id, subscriber_id, status, message_id, error_message, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, a.ID, a.NewsletterID, a.SubscriberID, a.Status, a.MessageID, a.ErrorMessage, a.SentAt)
	if err != nil {
		return fmt.Errorf("record delivery attempt: %w", err)
	}
	return nil
}

// ListByNewsletter returns every recorded attempt for a newsletter, newest
// first, joined with the subscriber's current email for reporting.
func (r *DeliveryRepo) ListByNewsletter(ctx context.Context, newsletterID string) ([]domain.DeliveryAttempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ns.id, ns.newsletter_id, ns.subscriber_id, ns.status,
		       COALESCE(ns.message_id, ''), COALESCE(ns.error_message, ''),
		       ns.sent_at, ns.opened_at, ns.clicked_at, ns.created_at,
		       COALESCE(s.email, '')
		FROM newsletter_sends ns
		LEFT JOIN subscribers s ON s.id = ns.subscriber_id
		WHERE ns.newsletter_id = $1
		ORDER BY ns.created_at DESC
	`, newsletterID)
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.DeliveryAttempt
	for rows.Next() {
		var a domain.DeliveryAttempt
		if err := rows.Scan(
			&a.ID, &a.NewsletterID, &a.SubscriberID, &a.Status, &a.MessageID,
			&a.ErrorMessage, &a.SentAt, &a.OpenedAt, &a.ClickedAt, &a.CreatedAt,
			&a.SubscriberEmail,
		); err != nil {
			return nil, fmt.Errorf("scan delivery attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
