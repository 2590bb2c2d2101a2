package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/cmd/linket/repository"
)

// Store interfaces are declared on the consumer side so the state-machine
// and resolver logic can be exercised against in-memory fakes. The pgx
// repositories satisfy them. Lookups return (nil, nil) when no row exists;
// errors mean the store itself failed.

// TagStore is the Tag Store collaborator
type TagStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareTag, error)
	GetByPublicToken(ctx context.Context, token string) (*models.HardwareTag, error)
	GetByChipUID(ctx context.Context, chipUID string) (*models.HardwareTag, error)
	FindByClaimCredential(ctx context.Context, credential string) (*models.HardwareTag, error)
	ClaimIfClaimable(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.TagStatus) error
	ListExportWindow(ctx context.Context, batchID *uuid.UUID, after *repository.ExportCursor, limit int) ([]*repository.ExportRow, error)
}

// AssignmentStore persists tag assignments
type AssignmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TagAssignment, error)
	GetByTagID(ctx context.Context, tagID uuid.UUID) (*models.TagAssignment, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.TagAssignment, error)
	Upsert(ctx context.Context, a *models.TagAssignment) error
	Update(ctx context.Context, a *models.TagAssignment) error
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastRedirected(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ProfileStore reads profiles and their links
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	GetActiveByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	FirstOverrideLink(ctx context.Context, profileID uuid.UUID) (*models.ProfileLink, error)
	IncrementLinkClicks(ctx context.Context, linkID uuid.UUID) error
}

// EventStore appends to the tag event log
type EventStore interface {
	Insert(ctx context.Context, event *models.TagEvent) error
}

// BatchStore persists mint batches
type BatchStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareTagBatch, error)
	Mint(ctx context.Context, batch *models.HardwareTagBatch, tags []*models.HardwareTag) error
}

// CachePurger invalidates any downstream cache of the public redirect for
// a token after a target change
type CachePurger interface {
	Purge(ctx context.Context, token string) error
}
