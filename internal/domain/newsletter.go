package domain

import "time"

// NewsletterStatus enumerates the lifecycle states of a newsletter.
type NewsletterStatus string

const (
	NewsletterDraft     NewsletterStatus = "draft"
	NewsletterScheduled NewsletterStatus = "scheduled"
	NewsletterPublished NewsletterStatus = "published"
)

// Newsletter is an authored piece of HTML content with a publication
// lifecycle. A newsletter is owned by exactly one user; all mutations are
// owner-gated at the service layer.
//
// Invariants:
//   - Status == NewsletterScheduled ⟺ ScheduledAt != nil
//   - PublishedAt is set once on first publish and never cleared
//   - IsPublic is independent of Status
type Newsletter struct {
	ID          string           `json:"id" db:"id"`
	OwnerID     string           `json:"owner_id" db:"owner_id"`
	Title       string           `json:"title" db:"title"`
	Content     string           `json:"content" db:"content"`
	Status      NewsletterStatus `json:"status" db:"status"`
	IsPublic    bool             `json:"is_public" db:"is_public"`
	ScheduledAt *time.Time       `json:"scheduled_at" db:"scheduled_at"`
	PublishedAt *time.Time       `json:"published_at" db:"published_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// IsScheduled reports whether the newsletter currently awaits a scheduled send.
func (n *Newsletter) IsScheduled() bool {
	return n.Status == NewsletterScheduled
}
