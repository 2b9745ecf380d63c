package dispatch

import (
	"context"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/render"
)

// NewsletterRepository is the newsletter lookup contract the dispatcher
// needs. Lookups are ownership-filtered: a newsletter owned by someone else
// is indistinguishable from one that does not exist.
type NewsletterRepository interface {
	// Get returns a single newsletter. When it doesn't exist or is not owned
	// by ownerID, implementations return their own not-found error (the
	// Postgres repository returns newsletter.ErrNotFound); the dispatcher
	// passes it through unchanged.
	Get(ctx context.Context, ownerID, id string) (*domain.Newsletter, error)
}

// SubscriberRepository resolves dispatch targets. Implementations must be
// safe for concurrent use.
type SubscriberRepository interface {
	// ListActive returns every active subscriber owned by ownerID.
	ListActive(ctx context.Context, ownerID string) ([]domain.Subscriber, error)

	// ListActiveByIDs returns the subset of ids that resolve to active
	// subscribers owned by ownerID. Unknown, foreign, and inactive ids are
	// omitted from the result, not errored.
	ListActiveByIDs(ctx context.Context, ownerID string, ids []string) ([]domain.Subscriber, error)

	// Get returns a single subscriber regardless of active state. When it
	// doesn't exist or is not owned by ownerID, implementations return their
	// own not-found error, passed through unchanged.
	Get(ctx context.Context, ownerID, id string) (*domain.Subscriber, error)
}

// Ledger is the append-only delivery attempt store. Record never updates
// prior rows and performs no dedup: a resend produces a second row for the
// same (newsletter, subscriber) pair.
type Ledger interface {
	Record(ctx context.Context, attempt *domain.DeliveryAttempt) error

	// ListByNewsletter returns all attempts for a newsletter, newest first,
	// with SubscriberEmail populated from the subscriber record when it
	// still exists.
	ListByNewsletter(ctx context.Context, newsletterID string) ([]domain.DeliveryAttempt, error)
}

// Renderer produces the transport-ready message for one subscriber.
// Satisfied by *render.Renderer.
type Renderer interface {
	Render(n *domain.Newsletter, s *domain.Subscriber) (*render.Message, error)
}
