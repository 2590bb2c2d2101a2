package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/db"
)

// EventRepository handles the append-only tag event log
type EventRepository struct {
	db *db.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *db.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert appends one event. Events are never updated or deleted.
func (r *EventRepository) Insert(ctx context.Context, event *models.TagEvent) error {
	query := `
		INSERT INTO tag_event (id, tag_id, event_type, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.TagID,
		event.EventType,
		event.Metadata,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag event: %w", err)
	}

	return nil
}
