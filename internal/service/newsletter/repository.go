package newsletter

import (
	"context"
	"time"

	"github.com/inkwell/newsletter-platform/internal/domain"
)

// Repository defines the data access contract for newsletters.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single newsletter. Returns ErrNotFound if it doesn't
	// exist or is not owned by ownerID.
	Get(ctx context.Context, ownerID, id string) (*domain.Newsletter, error)

	// GetPublic returns a newsletter by id only when is_public is set.
	// Returns ErrNotFound otherwise.
	GetPublic(ctx context.Context, id string) (*domain.Newsletter, error)

	// List returns the owner's newsletters ordered by created_at DESC.
	List(ctx context.Context, ownerID string, f ListFilter) ([]domain.Newsletter, int, error)

	// Create inserts a new newsletter and returns its id.
	Create(ctx context.Context, n *domain.Newsletter) (string, error)

	// Update modifies a newsletter. Only non-nil fields are applied.
	Update(ctx context.Context, ownerID, id string, u UpdateFields) error

	// Delete removes a newsletter. Delivery ledger rows referencing it are
	// preserved; the store must not cascade them away.
	Delete(ctx context.Context, ownerID, id string) error

	// SetSchedule updates status and scheduled_at together so the
	// status/scheduled_at invariant cannot be observed broken.
	SetSchedule(ctx context.Context, ownerID, id string, status domain.NewsletterStatus, at *time.Time) error

	// MarkPublished sets status=published and fills published_at only when
	// it is still null (first publish wins).
	MarkPublished(ctx context.Context, ownerID, id string, at time.Time) error

	// SetPublic toggles visibility. When public is true, published_at is
	// filled with at only if still null.
	SetPublic(ctx context.Context, ownerID, id string, public bool, at time.Time) error
}

// ListFilter controls pagination and filtering for newsletter lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for a newsletter update.
// Nil fields are not applied.
type UpdateFields struct {
	Title   *string
	Content *string
}
