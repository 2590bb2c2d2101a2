package models

import (
	"time"

	"github.com/google/uuid"
)

// TagEventType classifies a tag event
type TagEventType string

const (
	TagEventScan         TagEventType = "scan"
	TagEventClaim        TagEventType = "claim"
	TagEventRelease      TagEventType = "release"
	TagEventTargetChange TagEventType = "target_change"
)

// TagEvent is an immutable, append-only log record of a tag action.
// Write-only from the core's perspective; never updated or deleted.
// Maps to: tag_event table
type TagEvent struct {
	ID uuid.UUID `db:"id" json:"id"`

	TagID uuid.UUID `db:"tag_id" json:"tag_id"`

	EventType TagEventType `db:"event_type" json:"event_type"`

	// Free-form attribution and context, stored as JSONB
	Metadata map[string]any `db:"metadata" json:"metadata,omitempty"`

	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// ScanMetadata builds the metadata for a scan event of an assigned tag.
// Analytics readers predate the owner_* naming, so the legacy aliases are
// written alongside.
func ScanMetadata(a *TagAssignment) map[string]any {
	meta := map[string]any{
		"owner_user_id": a.UserID,
		"user_id":       a.UserID, // legacy alias
	}
	if a.ProfileID != nil {
		meta["owner_profile_id"] = a.ProfileID.String()
		meta["profile_id"] = a.ProfileID.String() // legacy alias
	}
	return meta
}
