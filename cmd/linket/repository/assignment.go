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

// AssignmentRepository handles database operations for tag assignments
type AssignmentRepository struct {
	db *db.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *db.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, tag_id, user_id, profile_id, nickname, target_type, target_url, last_redirected_at, created_at, updated_at`

func scanAssignment(row pgx.Row) (*models.TagAssignment, error) {
	a := &models.TagAssignment{}
	err := row.Scan(
		&a.ID,
		&a.TagID,
		&a.UserID,
		&a.ProfileID,
		&a.Nickname,
		&a.TargetType,
		&a.TargetURL,
		&a.LastRedirectedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	return a, nil
}

// GetByID retrieves an assignment by id. Returns (nil, nil) when absent.
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TagAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM tag_assignment WHERE id = $1`
	return scanAssignment(r.db.QueryRow(ctx, query, id))
}

// GetByTagID retrieves the zero-or-one assignment for a tag
func (r *AssignmentRepository) GetByTagID(ctx context.Context, tagID uuid.UUID) (*models.TagAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM tag_assignment WHERE tag_id = $1`
	return scanAssignment(r.db.QueryRow(ctx, query, tagID))
}

// ListByUserID retrieves all assignments held by an account
func (r *AssignmentRepository) ListByUserID(ctx context.Context, userID string) ([]*models.TagAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM tag_assignment WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.TagAssignment
	for rows.Next() {
		a := &models.TagAssignment{}
		err := rows.Scan(
			&a.ID,
			&a.TagID,
			&a.UserID,
			&a.ProfileID,
			&a.Nickname,
			&a.TargetType,
			&a.TargetURL,
			&a.LastRedirectedAt,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// Upsert creates or replaces the assignment for a tag, keyed by tag_id,
// so reclaiming the same tag replaces rather than duplicates the binding.
// The assignment's ID and timestamps are populated from the stored row.
func (r *AssignmentRepository) Upsert(ctx context.Context, a *models.TagAssignment) error {
	query := `
		INSERT INTO tag_assignment (id, tag_id, user_id, profile_id, nickname, target_type, target_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (tag_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    profile_id = EXCLUDED.profile_id,
		    nickname = EXCLUDED.nickname,
		    target_type = EXCLUDED.target_type,
		    target_url = EXCLUDED.target_url,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		a.ID,
		a.TagID,
		a.UserID,
		a.ProfileID,
		a.Nickname,
		a.TargetType,
		a.TargetURL,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return nil
}

// Update persists an edited assignment (nickname/target changes)
func (r *AssignmentRepository) Update(ctx context.Context, a *models.TagAssignment) error {
	query := `
		UPDATE tag_assignment
		SET nickname = $2, target_type = $3, target_url = $4, profile_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		a.ID,
		a.Nickname,
		a.TargetType,
		a.TargetURL,
		a.ProfileID,
	).Scan(&a.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("assignment not found: %s", a.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	return nil
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tag_assignment WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("assignment not found: %s", id)
	}

	return nil
}

// TouchLastRedirected stamps the assignment's last successful redirect.
// Last-writer-wins; no guard needed.
func (r *AssignmentRepository) TouchLastRedirected(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE tag_assignment SET last_redirected_at = $2 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to touch last_redirected_at: %w", err)
	}

	return nil
}
