package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is a public-facing profile owned by an account. An account
// may own several profiles; at most one is active for default resolution.
// Maps to: user_profile table
type UserProfile struct {
	ID uuid.UUID `db:"id" json:"id"`

	UserID string `db:"user_id" json:"user_id"`

	// URL path segment, unique
	Handle string `db:"handle" json:"handle"`

	Name     string `db:"name" json:"name"`
	Headline string `db:"headline" json:"headline"`
	Theme    string `db:"theme" json:"theme"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileLink is one link on a profile. An active link flagged is_override
// takes priority over the profile page itself during tag redirect resolution.
// Maps to: profile_link table
type ProfileLink struct {
	ID uuid.UUID `db:"id" json:"id"`

	ProfileID uuid.UUID `db:"profile_id" json:"profile_id"`

	Title      string `db:"title" json:"title"`
	URL        string `db:"url" json:"url"`
	OrderIndex int    `db:"order_index" json:"order_index"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	IsOverride bool   `db:"is_override" json:"is_override"`

	Clicks int64 `db:"clicks" json:"clicks"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
