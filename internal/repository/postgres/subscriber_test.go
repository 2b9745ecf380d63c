package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/service/subscriber"
)

const testSubscriberID = "7b8d4e2a-1c3f-4a6b-9d0e-5f7a8b9c0d1e"

func TestSubscriberCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO subscribers`).
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewSubscriberRepo(db)
	_, err = repo.Create(context.Background(), &domain.Subscriber{
		OwnerID:      "owner-1",
		Email:        "dup@example.com",
		IsActive:     true,
		SubscribedAt: time.Now(),
	})
	if !errors.Is(err, subscriber.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestSubscriberDeactivateIdempotentTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE subscribers\s+SET is_active = false,\s+unsubscribed_at = COALESCE\(unsubscribed_at, \$2\)`).
		WithArgs(testSubscriberID, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSubscriberRepo(db)
	if err := repo.Deactivate(context.Background(), testSubscriberID, at); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriberMalformedIDNeverQueries(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// No expectations: unsubscribe tokens decode to arbitrary text, and a
	// non-uuid id must not reach the uuid-typed id column.
	repo := NewSubscriberRepo(db)

	if _, err := repo.Get(context.Background(), "owner-1", "ghost"); !errors.Is(err, subscriber.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "owner-1", "ghost"); !errors.Is(err, subscriber.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.Deactivate(context.Background(), "ghost", time.Now()); !errors.Is(err, subscriber.ErrNotFound) {
		t.Fatalf("Deactivate: expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriberListActiveByIDsSkipsMalformed(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// The malformed id is dropped before the query; the valid one goes
	// through in the array parameter.
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "email", "name", "is_active", "subscribed_at", "unsubscribed_at",
	}).AddRow(testSubscriberID, "owner-1", "a@example.com", "A", true, time.Now(), nil)

	mock.ExpectQuery(`SELECT .+ FROM subscribers\s+WHERE owner_id = \$1 AND is_active = true AND id = ANY\(\$2\)`).
		WillReturnRows(rows)

	repo := NewSubscriberRepo(db)
	got, err := repo.ListActiveByIDs(context.Background(), "owner-1", []string{"not-a-uuid", testSubscriberID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != testSubscriberID {
		t.Fatalf("unexpected subscribers: %+v", got)
	}
}

func TestSubscriberListActiveByIDsAllMalformed(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewSubscriberRepo(db)
	got, err := repo.ListActiveByIDs(context.Background(), "owner-1", []string{"ghost", "also-not-a-uuid"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no subscribers, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
