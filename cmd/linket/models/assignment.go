package models

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// TargetType is where a claimed tag points
type TargetType string

const (
	// TargetTypeProfile redirects to a profile (explicit or the owner's active one)
	TargetTypeProfile TargetType = "profile"
	// TargetTypeURL redirects to an explicit absolute URL
	TargetTypeURL TargetType = "url"
)

// TagAssignment binds one claimed tag to one account and a destination.
// At most one assignment exists per tag (unique on tag_id); claiming
// upserts rather than duplicating.
// Maps to: tag_assignment table
type TagAssignment struct {
	ID uuid.UUID `db:"id" json:"id"`

	TagID uuid.UUID `db:"tag_id" json:"tag_id"`

	// Account identifier from the hosted auth provider
	UserID string `db:"user_id" json:"user_id"`

	// Explicit destination profile; nil falls back to the account's
	// currently-active profile at resolution time
	ProfileID *uuid.UUID `db:"profile_id" json:"profile_id,omitempty"`

	// Display label, optional
	Nickname *string `db:"nickname" json:"nickname,omitempty"`

	TargetType TargetType `db:"target_type" json:"target_type"`

	// Present iff TargetType == url
	TargetURL *string `db:"target_url" json:"target_url,omitempty"`

	LastRedirectedAt *time.Time `db:"last_redirected_at" json:"last_redirected_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidTargetURL reports whether s is an absolute http(s) URL acceptable
// as an assignment target
func ValidTargetURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
