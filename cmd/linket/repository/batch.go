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

// BatchRepository handles database operations for mint batches
type BatchRepository struct {
	db *db.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *db.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// GetByID retrieves a batch by id. Returns (nil, nil) when absent.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareTagBatch, error) {
	query := `SELECT id, label, created_at FROM hardware_tag_batch WHERE id = $1`

	batch := &models.HardwareTagBatch{}
	err := r.db.QueryRow(ctx, query, id).Scan(&batch.ID, &batch.Label, &batch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return batch, nil
}

// Mint inserts a batch and all of its tags in one transaction so a
// failure never produces a partial batch. Tags go in via COPY.
func (r *BatchRepository) Mint(ctx context.Context, batch *models.HardwareTagBatch, tags []*models.HardwareTag) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin mint transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO hardware_tag_batch (id, label, created_at) VALUES ($1, $2, $3)`,
		batch.ID, batch.Label, batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	rows := make([][]any, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, []any{
			tag.ID,
			tag.ChipUID,
			tag.PublicToken,
			tag.ClaimCode,
			tag.Status,
			tag.BatchID,
			tag.CreatedAt,
			tag.UpdatedAt,
		})
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"hardware_tag"},
		[]string{"id", "chip_uid", "public_token", "claim_code", "status", "batch_id", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy tags: %w", err)
	}
	if copied != int64(len(tags)) {
		return fmt.Errorf("mint copied %d of %d tags", copied, len(tags))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit mint transaction: %w", err)
	}

	return nil
}
