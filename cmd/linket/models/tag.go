package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TagStatus is the lifecycle state of a physical tag
// Maps to: hardware_tag.status
type TagStatus string

const (
	// TagStatusUnclaimed is the minted-but-unbound state
	TagStatusUnclaimed TagStatus = "unclaimed"
	// TagStatusClaimable is an explicitly activated-for-claiming state;
	// treated the same as unclaimed by the claim transition
	TagStatusClaimable TagStatus = "claimable"
	// TagStatusClaimed means the tag is bound to an account
	TagStatusClaimed TagStatus = "claimed"
	// TagStatusRetired is the administrative end-of-life state
	TagStatusRetired TagStatus = "retired"
)

// IsClaimable reports whether a claim transition is allowed from this state
func (s TagStatus) IsClaimable() bool {
	return s == TagStatusUnclaimed || s == TagStatusClaimable
}

// HardwareTag represents one physical NFC/QR unit
// Maps to: hardware_tag table
type HardwareTag struct {
	ID uuid.UUID `db:"id" json:"id"`

	// Physical chip identifier, unique, immutable
	ChipUID string `db:"chip_uid" json:"chip_uid"`

	// URL-safe identifier embedded in the tag's NFC/QR payload, unique, immutable
	PublicToken string `db:"public_token" json:"public_token"`

	// Human-typeable claim credential, unique, nullable until minted
	ClaimCode *string `db:"claim_code" json:"claim_code,omitempty"`

	Status TagStatus `db:"status" json:"status"`

	LastClaimedAt *time.Time `db:"last_claimed_at" json:"last_claimed_at,omitempty"`

	// Groups tags minted together
	BatchID *uuid.UUID `db:"batch_id" json:"batch_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizeClaimCode canonicalizes user input before lookup:
// hyphens and spaces stripped, uppercased.
func NormalizeClaimCode(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(code)
}

// FormatClaimCode renders a raw claim code in the human-friendly display
// format: uppercase, hyphen-separated groups of 4 (AB12CD34EF56 -> AB12-CD34-EF56).
func FormatClaimCode(code string) string {
	code = NormalizeClaimCode(code)
	if code == "" {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(code); i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + 4
		if end > len(code) {
			end = len(code)
		}
		b.WriteString(code[i:end])
	}
	return b.String()
}
