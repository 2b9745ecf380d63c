package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/service/newsletter"
)

const (
	testNewsletterID = "3f2c2f9e-9c58-4e5f-8a43-0a4f3f2b1d10"
	testMissingID    = "00000000-0000-0000-0000-000000000001"
)

func newsletterRows(n *domain.Newsletter) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "title", "content", "status", "is_public",
		"scheduled_at", "published_at", "created_at", "updated_at",
	}).AddRow(
		n.ID, n.OwnerID, n.Title, n.Content, n.Status, n.IsPublic,
		n.ScheduledAt, n.PublishedAt, n.CreatedAt, n.UpdatedAt,
	)
}

func TestNewsletterGet(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	want := &domain.Newsletter{
		ID:        testNewsletterID,
		OwnerID:   "owner-1",
		Title:     "Issue #1",
		Content:   "<p>hello</p>",
		Status:    domain.NewsletterDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	mock.ExpectQuery(`SELECT .+ FROM newsletters\s+WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(testNewsletterID, "owner-1").
		WillReturnRows(newsletterRows(want))

	repo := NewNewsletterRepo(db)
	got, err := repo.Get(context.Background(), "owner-1", testNewsletterID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != want.ID || got.Title != want.Title || got.Status != want.Status {
		t.Fatalf("unexpected newsletter: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNewsletterGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM newsletters`).
		WithArgs(testMissingID, "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewNewsletterRepo(db)
	_, err = repo.Get(context.Background(), "owner-1", testMissingID)
	if !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewsletterMalformedIDNeverQueries(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// No expectations: a non-uuid id must be rejected before it reaches
	// Postgres, where comparing it against a uuid column raises 22P02.
	repo := NewNewsletterRepo(db)

	if _, err := repo.Get(context.Background(), "owner-1", "not-a-uuid"); !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetPublic(context.Background(), "not-a-uuid"); !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("GetPublic: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "owner-1", "not-a-uuid"); !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.MarkPublished(context.Background(), "owner-1", "not-a-uuid", time.Now()); !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("MarkPublished: expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNewsletterGetPublicFiltersPrivate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// A private newsletter never matches the is_public predicate.
	mock.ExpectQuery(`SELECT .+ FROM newsletters\s+WHERE id = \$1 AND is_public = true`).
		WithArgs(testNewsletterID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewNewsletterRepo(db)
	_, err = repo.GetPublic(context.Background(), testNewsletterID)
	if !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewsletterMarkPublishedCoalesces(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE newsletters\s+SET status = \$3, published_at = COALESCE\(published_at, \$4\)`).
		WithArgs(testNewsletterID, "owner-1", domain.NewsletterPublished, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewNewsletterRepo(db)
	if err := repo.MarkPublished(context.Background(), "owner-1", testNewsletterID, at); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNewsletterUpdateZeroRowsIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE newsletters SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	title := "renamed"
	repo := NewNewsletterRepo(db)
	err = repo.Update(context.Background(), "owner-2", testNewsletterID, newsletter.UpdateFields{Title: &title})
	if !errors.Is(err, newsletter.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
