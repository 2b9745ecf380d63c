package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/service/subscriber"
)

// SubscriberRepo implements subscriber.Repository and the dispatch
// service's subscriber lookups against PostgreSQL.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber repository.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

const subscriberColumns = `id, owner_id, email, name, is_active, subscribed_at, unsubscribed_at`

func (r *SubscriberRepo) Get(ctx context.Context, ownerID, id string) (*domain.Subscriber, error) {
	if !validUUID(id) {
		return nil, subscriber.ErrNotFound
	}
	s := &domain.Subscriber{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(
		&s.ID, &s.OwnerID, &s.Email, &s.Name, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt,
	)
	if err == sql.ErrNoRows {
		return nil, subscriber.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) List(ctx context.Context, ownerID string) ([]domain.Subscriber, error) {
	return r.query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE owner_id = $1
		ORDER BY subscribed_at DESC
	`, ownerID)
}

// ListActive returns the owner's active subscribers, the eligible audience
// for a full-list send.
func (r *SubscriberRepo) ListActive(ctx context.Context, ownerID string) ([]domain.Subscriber, error) {
	return r.query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE owner_id = $1 AND is_active = true
		ORDER BY subscribed_at DESC
	`, ownerID)
}

// ListActiveByIDs returns only those of the given ids that exist, belong to
// the owner, and are active. Unknown, foreign, inactive, and malformed ids
// are simply absent from the result.
func (r *SubscriberRepo) ListActiveByIDs(ctx context.Context, ownerID string, ids []string) ([]domain.Subscriber, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE owner_id = $1 AND is_active = true AND id = ANY($2)
		ORDER BY subscribed_at DESC
	`, ownerID, pq.Array(valid))
}

func (r *SubscriberRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Email, &s.Name, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubscriberRepo) Create(ctx context.Context, s *domain.Subscriber) (string, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, owner_id, email, name, is_active, subscribed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.OwnerID, s.Email, s.Name, s.IsActive, s.SubscribedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", subscriber.ErrDuplicateEmail
		}
		return "", fmt.Errorf("create subscriber: %w", err)
	}
	return s.ID, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, ownerID, id string) error {
	if !validUUID(id) {
		return subscriber.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subscribers WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return requireRow(res, subscriber.ErrNotFound)
}

// Deactivate is idempotent: an already-inactive row keeps its original
// unsubscribed_at timestamp.
func (r *SubscriberRepo) Deactivate(ctx context.Context, id string, at time.Time) error {
	if !validUUID(id) {
		return subscriber.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET is_active = false,
		    unsubscribed_at = COALESCE(unsubscribed_at, $2)
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	return requireRow(res, subscriber.ErrNotFound)
}
