package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/db"
)

// TagRepository handles database operations for hardware tags
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *db.DB) *TagRepository {
	return &TagRepository{db: db}
}

const tagColumns = `id, chip_uid, public_token, claim_code, status, last_claimed_at, batch_id, created_at, updated_at`

func scanTag(row pgx.Row) (*models.HardwareTag, error) {
	tag := &models.HardwareTag{}
	err := row.Scan(
		&tag.ID,
		&tag.ChipUID,
		&tag.PublicToken,
		&tag.ClaimCode,
		&tag.Status,
		&tag.LastClaimedAt,
		&tag.BatchID,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}
	return tag, nil
}

// GetByID retrieves a tag by id
func (r *TagRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareTag, error) {
	query := `SELECT ` + tagColumns + ` FROM hardware_tag WHERE id = $1`
	return scanTag(r.db.QueryRow(ctx, query, id))
}

// GetByPublicToken retrieves a tag by its public token (exact match).
// Returns (nil, nil) when no tag carries the token.
func (r *TagRepository) GetByPublicToken(ctx context.Context, token string) (*models.HardwareTag, error) {
	query := `SELECT ` + tagColumns + ` FROM hardware_tag WHERE public_token = $1`
	return scanTag(r.db.QueryRow(ctx, query, token))
}

// GetByChipUID retrieves a tag by its physical chip identifier
func (r *TagRepository) GetByChipUID(ctx context.Context, chipUID string) (*models.HardwareTag, error) {
	query := `SELECT ` + tagColumns + ` FROM hardware_tag WHERE chip_uid = $1`
	return scanTag(r.db.QueryRow(ctx, query, chipUID))
}

// FindByClaimCredential resolves a normalized claim input to a tag.
// Exact claim_code match wins; chip_uid or public_token equal to the input
// are accepted as fallbacks so a tag's own token works as a claim credential.
func (r *TagRepository) FindByClaimCredential(ctx context.Context, credential string) (*models.HardwareTag, error) {
	query := `SELECT ` + tagColumns + ` FROM hardware_tag WHERE claim_code = $1`
	tag, err := scanTag(r.db.QueryRow(ctx, query, credential))
	if err != nil || tag != nil {
		return tag, err
	}

	query = `SELECT ` + tagColumns + ` FROM hardware_tag WHERE chip_uid = $1 OR public_token = $1`
	return scanTag(r.db.QueryRow(ctx, query, credential))
}

// ClaimIfClaimable transitions a tag to claimed iff it is still claimable.
// The WHERE guard is the store-level critical section: under concurrent
// claims exactly one caller sees true, every other caller sees false.
func (r *TagRepository) ClaimIfClaimable(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE hardware_tag
		SET status = $2, last_claimed_at = $3, updated_at = $3
		WHERE id = $1 AND status IN ($4, $5)
	`

	result, err := r.db.Exec(ctx, query, id,
		models.TagStatusClaimed, at,
		models.TagStatusUnclaimed, models.TagStatusClaimable,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim tag: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// SetStatus updates a tag's status unconditionally (release, retire)
func (r *TagRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.TagStatus) error {
	query := `UPDATE hardware_tag SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to set tag status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tag not found: %s", id)
	}

	return nil
}

// ExportRow is a tag joined with its resolved batch label for CSV export
type ExportRow struct {
	models.HardwareTag
	BatchLabel *string
}

// ExportCursor marks the position after the last row of a page.
// The (created_at, id) pair is the stable sort key that guarantees no row
// is skipped or duplicated across windows.
type ExportCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ListExportWindow returns one window of tags in stable (created_at, id)
// order, optionally filtered to a batch, starting after the cursor.
func (r *TagRepository) ListExportWindow(ctx context.Context, batchID *uuid.UUID, after *ExportCursor, limit int) ([]*ExportRow, error) {
	query := `
		SELECT t.id, t.chip_uid, t.public_token, t.claim_code, t.status,
		       t.last_claimed_at, t.batch_id, t.created_at, t.updated_at,
		       b.label
		FROM hardware_tag t
		LEFT JOIN hardware_tag_batch b ON b.id = t.batch_id
		WHERE ($1::uuid IS NULL OR t.batch_id = $1)
		  AND ($2::timestamptz IS NULL OR (t.created_at, t.id) > ($2, $3))
		ORDER BY t.created_at ASC, t.id ASC
		LIMIT $4
	`

	var afterCreated *time.Time
	var afterID *uuid.UUID
	if after != nil {
		afterCreated = &after.CreatedAt
		afterID = &after.ID
	}

	rows, err := r.db.Query(ctx, query, batchID, afterCreated, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list export window: %w", err)
	}
	defer rows.Close()

	var result []*ExportRow
	for rows.Next() {
		row := &ExportRow{}
		err := rows.Scan(
			&row.ID,
			&row.ChipUID,
			&row.PublicToken,
			&row.ClaimCode,
			&row.Status,
			&row.LastClaimedAt,
			&row.BatchID,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.BatchLabel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export window: %w", err)
	}

	return result, nil
}
