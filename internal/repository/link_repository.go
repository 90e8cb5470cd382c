package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"linkforge/internal/entities"
)

var (
	// ErrNotFound is returned for absent, expired, and foreign-owned links
	// uniformly, so callers cannot probe for another owner's codes.
	ErrNotFound = errors.New("link not found")

	// ErrCodeTaken is returned when a short code already exists, active or not.
	ErrCodeTaken = errors.New("short code already taken")
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// LinkRepository defines the registry store for short link records
type LinkRepository interface {
	// Create atomically reserves the short code and inserts the record.
	// Returns ErrCodeTaken if the code exists anywhere in the table's
	// history; the insert itself is the reservation, there is no
	// existence pre-check.
	Create(ctx context.Context, link *entities.ShortLink) (*entities.ShortLink, error)

	// FindByShortCode returns the active link for the code. A found record
	// whose expiry has passed is deactivated as a side effect and reported
	// as ErrNotFound.
	FindByShortCode(ctx context.Context, shortCode string) (*entities.ShortLink, error)

	// IncrementClickCount bumps the counter in a single UPDATE.
	IncrementClickCount(ctx context.Context, shortCode string) error

	// Deactivate soft-deletes a link owned by userID. Owner mismatch is
	// reported as ErrNotFound.
	Deactivate(ctx context.Context, shortCode, userID string) error

	// GetByUserID lists an owner's active links, newest first.
	GetByUserID(ctx context.Context, userID string) ([]*entities.ShortLink, error)

	// DeactivateExpired deactivates every active link whose expiry has
	// passed, as one batch statement, and returns how many were affected.
	DeactivateExpired(ctx context.Context) (int64, error)
}

type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, short_code, original_url, user_id, user_email, is_custom_alias, click_count, created_at, expires_at, is_active`

func scanLink(row *sql.Row) (*entities.ShortLink, error) {
	var link entities.ShortLink
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.UserID,
		&link.UserEmail,
		&link.IsCustomAlias,
		&link.ClickCount,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) Create(ctx context.Context, link *entities.ShortLink) (*entities.ShortLink, error) {
	// The column is NOT NULL and defaulting belongs to the service layer;
	// a record without expiry is a caller bug, not an insertable row.
	if link.ExpiresAt == nil {
		return nil, errors.New("link expiry is required")
	}

	query := `
		INSERT INTO links (short_code, original_url, user_id, user_email, is_custom_alias, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + linkColumns

	row := r.db.QueryRowContext(ctx, query,
		link.ShortCode,
		link.OriginalURL,
		link.UserID,
		link.UserEmail,
		link.IsCustomAlias,
		link.ExpiresAt.UTC(),
	)

	created, err := scanLink(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return created, nil
}

func (r *linkRepository) FindByShortCode(ctx context.Context, shortCode string) (*entities.ShortLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE short_code = $1 AND is_active
	`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}

	// Lazy expiry: a read that finds a stale record converges it to the
	// same state the sweeper would, then reports not found.
	if link.Expired(time.Now().UTC()) {
		if err := r.deactivateByCode(ctx, shortCode); err != nil {
			return nil, fmt.Errorf("failed to deactivate expired link: %w", err)
		}
		return nil, ErrNotFound
	}

	return link, nil
}

func (r *linkRepository) deactivateByCode(ctx context.Context, shortCode string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE links SET is_active = FALSE WHERE short_code = $1`, shortCode)
	return err
}

func (r *linkRepository) IncrementClickCount(ctx context.Context, shortCode string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE links
		SET click_count = click_count + 1
		WHERE short_code = $1
	`, shortCode)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *linkRepository) Deactivate(ctx context.Context, shortCode, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE links
		SET is_active = FALSE
		WHERE short_code = $1 AND user_id = $2 AND is_active
	`, shortCode, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *linkRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.ShortLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}
	defer rows.Close()

	var links []*entities.ShortLink
	for rows.Next() {
		var link entities.ShortLink
		err := rows.Scan(
			&link.ID,
			&link.ShortCode,
			&link.OriginalURL,
			&link.UserID,
			&link.UserEmail,
			&link.IsCustomAlias,
			&link.ClickCount,
			&link.CreatedAt,
			&link.ExpiresAt,
			&link.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &link)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	// The boundary is bound as a timestamptz parameter; comparing against a
	// session-local expression would shift it by the session's UTC offset.
	result, err := r.db.ExecContext(ctx, `
		UPDATE links
		SET is_active = FALSE
		WHERE is_active AND expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired links: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
