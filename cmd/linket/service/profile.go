package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/logger"
)

// ProfileResolver finds the destination profile for an account or an
// explicit profile id
type ProfileResolver struct {
	profiles ProfileStore
	log      *logger.Logger
}

// NewProfileResolver creates a new profile resolver
func NewProfileResolver(profiles ProfileStore, log *logger.Logger) *ProfileResolver {
	return &ProfileResolver{
		profiles: profiles,
		log:      log,
	}
}

// ByID retrieves a profile by id. Returns (nil, nil) when absent.
func (s *ProfileResolver) ByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	return profile, nil
}

// ActiveProfile retrieves the account's currently active profile.
// Returns (nil, nil) when the account has none.
func (s *ProfileResolver) ActiveProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profiles.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active profile: %w", err)
	}
	return profile, nil
}

// Destination resolves the profile an assignment should land on: the
// explicit profile_id when set, else the owner's active profile.
func (s *ProfileResolver) Destination(ctx context.Context, a *models.TagAssignment) (*models.UserProfile, error) {
	if a.ProfileID != nil {
		profile, err := s.ByID(ctx, *a.ProfileID)
		if err != nil || profile != nil {
			return profile, err
		}
		// Profile was deleted out from under the assignment; fall back.
		s.log.Warn("assignment references missing profile",
			"assignment_id", a.ID,
			"profile_id", *a.ProfileID,
		)
	}
	return s.ActiveProfile(ctx, a.UserID)
}

// IncrementClicks bumps a link's click counter
func (s *ProfileResolver) IncrementClicks(ctx context.Context, linkID uuid.UUID) error {
	return s.profiles.IncrementLinkClicks(ctx, linkID)
}

// OverrideLink returns the profile's first active override link, if any
func (s *ProfileResolver) OverrideLink(ctx context.Context, profileID uuid.UUID) (*models.ProfileLink, error) {
	link, err := s.profiles.FirstOverrideLink(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to find override link: %w", err)
	}
	return link, nil
}
