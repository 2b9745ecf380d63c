package subscriber

import (
	"context"
	"time"

	"github.com/inkwell/newsletter-platform/internal/domain"
)

// Repository defines the data access contract for subscribers.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single subscriber. Returns ErrNotFound if it doesn't
	// exist or is not owned by ownerID.
	Get(ctx context.Context, ownerID, id string) (*domain.Subscriber, error)

	// List returns every subscriber owned by ownerID, newest first.
	List(ctx context.Context, ownerID string) ([]domain.Subscriber, error)

	// Create inserts a new subscriber and returns its id. Returns
	// ErrDuplicateEmail when the owner already has the address.
	Create(ctx context.Context, s *domain.Subscriber) (string, error)

	// Delete removes a subscriber.
	Delete(ctx context.Context, ownerID, id string) error

	// Deactivate clears is_active and stamps unsubscribed_at. It is keyed
	// by id alone: unsubscribe links act on behalf of the subscriber, not
	// the list owner. Returns ErrNotFound for unknown ids.
	Deactivate(ctx context.Context, id string, at time.Time) error
}
