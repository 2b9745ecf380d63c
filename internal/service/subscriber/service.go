package subscriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/pkg/logger"
	"github.com/inkwell/newsletter-platform/internal/render"
)

// Service implements subscriber list management.
type Service struct {
	repo Repository
}

// NewService creates a subscriber service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single subscriber owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Subscriber, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's subscribers.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Subscriber, error) {
	return s.repo.List(ctx, ownerID)
}

// Add registers a new active subscriber under ownerID.
func (s *Service) Add(ctx context.Context, ownerID, email, name string) (*domain.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !render.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	sub := &domain.Subscriber{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Email:        email,
		Name:         strings.TrimSpace(name),
		IsActive:     true,
		SubscribedAt: time.Now().UTC(),
	}

	id, err := s.repo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	return sub, nil
}

// Delete removes a subscriber from the owner's list.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// Unsubscribe deactivates the subscriber named by an unsubscribe token.
// Deactivation is idempotent: repeated clicks on the same footer link
// succeed.
func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	id, err := render.ParseUnsubscribeToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := s.repo.Deactivate(ctx, id, time.Now().UTC()); err != nil {
		return err
	}

	logger.Info("subscriber unsubscribed", "subscriber_id", id)
	return nil
}
