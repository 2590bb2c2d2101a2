package models

import (
	"time"

	"github.com/google/uuid"
)

// HardwareTagBatch groups tags minted together for manufacturing/export.
// Never read during redirect resolution.
// Maps to: hardware_tag_batch table
type HardwareTagBatch struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
