package newsletter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/newsletter-platform/internal/domain"
)

// MinScheduleLead is the minimum gap between now and a requested send time.
// It leaves room for the operator to cancel and for the schedule runner's
// polling interval.
const MinScheduleLead = 5 * time.Minute

// Service implements newsletter business logic on top of a Repository.
// The clock is injectable for lead-time tests.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a newsletter service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns a single newsletter owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Newsletter, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// GetPublic returns a publicly visible newsletter without ownership checks.
func (s *Service) GetPublic(ctx context.Context, id string) (*domain.Newsletter, error) {
	return s.repo.GetPublic(ctx, id)
}

// List returns the owner's newsletters matching the filter.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) ([]domain.Newsletter, int, error) {
	return s.repo.List(ctx, ownerID, f)
}

// CreateInput holds the fields for creating a newsletter.
type CreateInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create persists a new newsletter in draft status.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Newsletter, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	now := s.now().UTC()
	n := &domain.Newsletter{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     input.Title,
		Content:   input.Content,
		Status:    domain.NewsletterDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	n.ID = id
	return n, nil
}

// Update modifies mutable newsletter fields.
func (s *Service) Update(ctx context.Context, ownerID, id string, u UpdateFields) error {
	if u.Title != nil && *u.Title == "" {
		return ErrTitleRequired
	}
	return s.repo.Update(ctx, ownerID, id, u)
}

// Delete removes a newsletter.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// Schedule transitions a newsletter to scheduled status. The requested time
// must be strictly more than MinScheduleLead in the future.
func (s *Service) Schedule(ctx context.Context, ownerID, id string, at time.Time) error {
	if _, err := s.repo.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if !at.After(s.now().Add(MinScheduleLead)) {
		return ErrScheduleTooSoon
	}

	at = at.UTC()
	if err := s.repo.SetSchedule(ctx, ownerID, id, domain.NewsletterScheduled, &at); err != nil {
		return fmt.Errorf("set schedule: %w", err)
	}
	return nil
}

// CancelSchedule returns a scheduled newsletter to draft, clearing
// scheduled_at. Only valid while the newsletter is scheduled.
func (s *Service) CancelSchedule(ctx context.Context, ownerID, id string) error {
	n, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !n.IsScheduled() {
		return ErrNotScheduled
	}

	if err := s.repo.SetSchedule(ctx, ownerID, id, domain.NewsletterDraft, nil); err != nil {
		return fmt.Errorf("cancel schedule: %w", err)
	}
	return nil
}

// Publish transitions a newsletter to published status. published_at is set
// on the first publish only; re-publishing keeps the original timestamp.
func (s *Service) Publish(ctx context.Context, ownerID, id string) error {
	if _, err := s.repo.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.MarkPublished(ctx, ownerID, id, s.now().UTC()); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// SetPublic toggles public visibility, independent of lifecycle status.
// Making a newsletter public for the first time stamps published_at,
// mirroring the publish transition's first-wins rule.
func (s *Service) SetPublic(ctx context.Context, ownerID, id string, public bool) error {
	if _, err := s.repo.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.SetPublic(ctx, ownerID, id, public, s.now().UTC()); err != nil {
		return fmt.Errorf("set public: %w", err)
	}
	return nil
}
