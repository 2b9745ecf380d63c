// Package postgres provides PostgreSQL-backed implementations of the
// service repository interfaces.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/service/newsletter"
)

// NewsletterRepo implements newsletter.Repository against PostgreSQL. Its
// Get method also satisfies the dispatch service's newsletter lookup.
type NewsletterRepo struct{ db *sql.DB }

// NewNewsletterRepo creates a Postgres-backed newsletter repository.
func NewNewsletterRepo(db *sql.DB) *NewsletterRepo { return &NewsletterRepo{db: db} }

const newsletterColumns = `id, owner_id, title, content, status, is_public,
	       scheduled_at, published_at, created_at, updated_at`

func scanNewsletter(row *sql.Row) (*domain.Newsletter, error) {
	n := &domain.Newsletter{}
	err := row.Scan(
		&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Status, &n.IsPublic,
		&n.ScheduledAt, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newsletter.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get newsletter: %w", err)
	}
	return n, nil
}

func (r *NewsletterRepo) Get(ctx context.Context, ownerID, id string) (*domain.Newsletter, error) {
	if !validUUID(id) {
		return nil, newsletter.ErrNotFound
	}
	return scanNewsletter(r.db.QueryRowContext(ctx, `
		SELECT `+newsletterColumns+`
		FROM newsletters
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID))
}

func (r *NewsletterRepo) GetPublic(ctx context.Context, id string) (*domain.Newsletter, error) {
	if !validUUID(id) {
		return nil, newsletter.ErrNotFound
	}
	return scanNewsletter(r.db.QueryRowContext(ctx, `
		SELECT `+newsletterColumns+`
		FROM newsletters
		WHERE id = $1 AND is_public = true
	`, id))
}

func (r *NewsletterRepo) List(ctx context.Context, ownerID string, f newsletter.ListFilter) ([]domain.Newsletter, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM newsletters WHERE owner_id = $1`
	countArgs := []interface{}{ownerID}
	if f.Status != "" {
		countQ += ` AND status = $2`
		countArgs = append(countArgs, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count newsletters: %w", err)
	}

	q := `
		SELECT ` + newsletterColumns + `
		FROM newsletters
		WHERE owner_id = $1`
	args := []interface{}{ownerID}
	idx := 2
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list newsletters: %w", err)
	}
	defer rows.Close()

	var out []domain.Newsletter
	for rows.Next() {
		var n domain.Newsletter
		if err := rows.Scan(
			&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Status, &n.IsPublic,
			&n.ScheduledAt, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan newsletter: %w", err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *NewsletterRepo) Create(ctx context.Context, n *domain.Newsletter) (string, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletters (id, owner_id, title, content, status, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW(), NOW())
	`, n.ID, n.OwnerID, n.Title, n.Content, n.Status)
	if err != nil {
		return "", fmt.Errorf("create newsletter: %w", err)
	}
	return n.ID, nil
}

func (r *NewsletterRepo) Update(ctx context.Context, ownerID, id string, u newsletter.UpdateFields) error {
	if !validUUID(id) {
		return newsletter.ErrNotFound
	}
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, ownerID}
	idx := 3

	if u.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", idx))
		args = append(args, *u.Title)
		idx++
	}
	if u.Content != nil {
		sets = append(sets, fmt.Sprintf("content = $%d", idx))
		args = append(args, *u.Content)
		idx++
	}

	q := "UPDATE newsletters SET " + joinSets(sets) + " WHERE id = $1 AND owner_id = $2"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update newsletter: %w", err)
	}
	return requireRow(res, newsletter.ErrNotFound)
}

func (r *NewsletterRepo) Delete(ctx context.Context, ownerID, id string) error {
	if !validUUID(id) {
		return newsletter.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM newsletters WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete newsletter: %w", err)
	}
	return requireRow(res, newsletter.ErrNotFound)
}

func (r *NewsletterRepo) SetSchedule(ctx context.Context, ownerID, id string, status domain.NewsletterStatus, at *time.Time) error {
	if !validUUID(id) {
		return newsletter.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletters
		SET status = $3, scheduled_at = $4, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, status, at)
	if err != nil {
		return fmt.Errorf("set schedule: %w", err)
	}
	return requireRow(res, newsletter.ErrNotFound)
}

// MarkPublished relies on COALESCE so the first publish wins the timestamp
// even under concurrent publishes.
func (r *NewsletterRepo) MarkPublished(ctx context.Context, ownerID, id string, at time.Time) error {
	if !validUUID(id) {
		return newsletter.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletters
		SET status = $3, published_at = COALESCE(published_at, $4), updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, domain.NewsletterPublished, at)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return requireRow(res, newsletter.ErrNotFound)
}

func (r *NewsletterRepo) SetPublic(ctx context.Context, ownerID, id string, public bool, at time.Time) error {
	if !validUUID(id) {
		return newsletter.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletters
		SET is_public = $3,
		    published_at = CASE WHEN $3 THEN COALESCE(published_at, $4) ELSE published_at END,
		    updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, public, at)
	if err != nil {
		return fmt.Errorf("set public: %w", err)
	}
	return requireRow(res, newsletter.ErrNotFound)
}

func joinSets(sets []string) string {
	out := ""
	for i, s := range sets {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// validUUID reports whether id is a well-formed UUID. A malformed id cannot
// match any row; rejecting it before the query keeps Postgres 22P02 errors
// out of the response path.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// requireRow maps a zero-row update to the given not-found sentinel.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
