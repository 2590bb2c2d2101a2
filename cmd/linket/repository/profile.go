package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/db"
)

// ProfileRepository handles database operations for profiles and their links
type ProfileRepository struct {
	db *db.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *db.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, handle, name, headline, theme, active, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Handle,
		&p.Name,
		&p.Headline,
		&p.Theme,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, nil
}

// GetByID retrieves a profile by id. Returns (nil, nil) when absent.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profile WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

// GetActiveByUserID retrieves the account's single active profile.
// More than one active row is a data-integrity condition the resolver
// tolerates: the oldest wins.
func (r *ProfileRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM user_profile
		WHERE user_id = $1 AND active
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanProfile(r.db.QueryRow(ctx, query, userID))
}

// FirstOverrideLink returns the active override link consulted before the
// profile page itself. Ordering is order_index then creation time; only the
// first is used even when several overrides exist.
func (r *ProfileRepository) FirstOverrideLink(ctx context.Context, profileID uuid.UUID) (*models.ProfileLink, error) {
	query := `
		SELECT id, profile_id, title, url, order_index, is_active, is_override, clicks, created_at
		FROM profile_link
		WHERE profile_id = $1 AND is_active AND is_override
		ORDER BY order_index ASC, created_at ASC
		LIMIT 1
	`

	link := &models.ProfileLink{}
	err := r.db.QueryRow(ctx, query, profileID).Scan(
		&link.ID,
		&link.ProfileID,
		&link.Title,
		&link.URL,
		&link.OrderIndex,
		&link.IsActive,
		&link.IsOverride,
		&link.Clicks,
		&link.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override link: %w", err)
	}

	return link, nil
}

// IncrementLinkClicks bumps a link's click counter. Last-writer-wins.
func (r *ProfileRepository) IncrementLinkClicks(ctx context.Context, linkID uuid.UUID) error {
	query := `UPDATE profile_link SET clicks = clicks + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, linkID); err != nil {
		return fmt.Errorf("failed to increment link clicks: %w", err)
	}

	return nil
}
