package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/apperror"
	"github.com/linkethq/linket/common/logger"
	"github.com/linkethq/linket/common/tasks"
)

// ClaimService owns the tag claim state machine: unclaimed/claimable ->
// claimed via Claim, claimed -> unclaimed via Release. The claimed
// transition is guarded by a conditional update in the store so exactly
// one of two racing claims wins; the loser gets Conflict.
type ClaimService struct {
	tags        TagStore
	assignments AssignmentStore
	profiles    *ProfileResolver
	recorder    *EventService
	purger      CachePurger
	runner      *tasks.Runner
	log         *logger.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(
	tags TagStore,
	assignments AssignmentStore,
	profiles *ProfileResolver,
	recorder *EventService,
	purger CachePurger,
	runner *tasks.Runner,
	log *logger.Logger,
) *ClaimService {
	return &ClaimService{
		tags:        tags,
		assignments: assignments,
		profiles:    profiles,
		recorder:    recorder,
		purger:      purger,
		runner:      runner,
		log:         log,
	}
}

// ClaimInput carries one claim attempt
type ClaimInput struct {
	// Code is the claim code, chip UID or public token identifying the tag
	Code      string
	UserID    string
	ProfileID *uuid.UUID
	Nickname  *string
}

// Claim binds a claimable tag to an account and returns the assignment id
func (s *ClaimService) Claim(ctx context.Context, in ClaimInput) (uuid.UUID, error) {
	credential := models.NormalizeClaimCode(in.Code)
	if credential == "" {
		return uuid.Nil, apperror.NewInvalidInput("claim code is required")
	}

	tag, err := s.tags.FindByClaimCredential(ctx, credential)
	if err != nil {
		return uuid.Nil, apperror.NewUpstream(err)
	}
	if tag == nil {
		return uuid.Nil, apperror.NewNotFound("no tag matches that code")
	}

	if !tag.Status.IsClaimable() {
		return uuid.Nil, apperror.NewConflict("tag is already claimed")
	}

	// The store-level guard is the critical section: between the read
	// above and this write another claim may have won. Conditional update
	// decides; a false return is a lost race, not an error.
	now := time.Now()
	won, err := s.tags.ClaimIfClaimable(ctx, tag.ID, now)
	if err != nil {
		return uuid.Nil, apperror.NewUpstream(err)
	}
	if !won {
		s.log.Warn("lost claim race", "tag_id", tag.ID, "user_id", in.UserID)
		return uuid.Nil, apperror.NewConflict("tag is already claimed")
	}

	profileID := in.ProfileID
	if profileID == nil {
		active, err := s.profiles.ActiveProfile(ctx, in.UserID)
		if err != nil {
			s.log.Warn("active profile lookup failed during claim",
				"user_id", in.UserID, "error", err)
		} else if active != nil {
			profileID = &active.ID
		}
	}

	assignment := &models.TagAssignment{
		TagID:      tag.ID,
		UserID:     in.UserID,
		ProfileID:  profileID,
		Nickname:   in.Nickname,
		TargetType: models.TargetTypeProfile,
	}
	if err := s.assignments.Upsert(ctx, assignment); err != nil {
		return uuid.Nil, apperror.NewUpstream(err)
	}

	metadata := map[string]any{
		"owner_user_id": in.UserID,
		"credential":    credentialKind(tag, credential),
	}
	s.recorder.RecordDetached(tag.ID, models.TagEventClaim, metadata)

	s.log.WithTag(tag.ID.String()).WithUser(in.UserID).Info("tag claimed",
		"assignment_id", assignment.ID,
	)

	return assignment.ID, nil
}

// Release unbinds an assignment and returns the tag to unclaimed.
// Only the assignment's owner may release it.
func (s *ClaimService) Release(ctx context.Context, assignmentID uuid.UUID, userID string) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return apperror.NewUpstream(err)
	}
	if assignment == nil {
		return apperror.NewNotFound("assignment not found")
	}
	if assignment.UserID != userID {
		return apperror.NewForbidden("assignment belongs to another account")
	}

	return s.release(ctx, assignment)
}

// ReleaseAllForUser releases every tag an account holds. Called by the
// auth collaborator when the account is deleted; tags are reset to
// unclaimed, never deleted.
func (s *ClaimService) ReleaseAllForUser(ctx context.Context, userID string) (int, error) {
	assignments, err := s.assignments.ListByUserID(ctx, userID)
	if err != nil {
		return 0, apperror.NewUpstream(err)
	}

	released := 0
	for _, assignment := range assignments {
		if err := s.release(ctx, assignment); err != nil {
			return released, err
		}
		released++
	}

	s.log.Info("released all tags for account", "user_id", userID, "count", released)
	return released, nil
}

func (s *ClaimService) release(ctx context.Context, assignment *models.TagAssignment) error {
	if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
		return apperror.NewUpstream(err)
	}

	if err := s.tags.SetStatus(ctx, assignment.TagID, models.TagStatusUnclaimed); err != nil {
		return apperror.NewUpstream(err)
	}

	s.recorder.RecordDetached(assignment.TagID, models.TagEventRelease, map[string]any{
		"owner_user_id": assignment.UserID,
	})

	s.log.WithTag(assignment.TagID.String()).WithUser(assignment.UserID).Info("tag released",
		"assignment_id", assignment.ID,
	)

	return nil
}

// UpdateTargetInput carries the editable assignment fields; nil leaves a
// field untouched
type UpdateTargetInput struct {
	Nickname   *string
	TargetType *models.TargetType
	ProfileID  *uuid.UUID
	TargetURL  *string
}

// UpdateTarget edits an assignment's nickname and/or destination. URL
// targets must be valid absolute http(s) URLs; a bad URL is rejected,
// never repaired. The field the new target type does not use is cleared.
func (s *ClaimService) UpdateTarget(ctx context.Context, assignmentID uuid.UUID, userID string, in UpdateTargetInput) (*models.TagAssignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, apperror.NewUpstream(err)
	}
	// A missing assignment and someone else's assignment answer the same
	// way: the caller has nothing to edit here.
	if assignment == nil || assignment.UserID != userID {
		return nil, apperror.NewForbidden("assignment not found")
	}

	if in.Nickname != nil {
		assignment.Nickname = in.Nickname
	}

	targetType := assignment.TargetType
	if in.TargetType != nil {
		targetType = *in.TargetType
	}

	switch targetType {
	case models.TargetTypeURL:
		targetURL := assignment.TargetURL
		if in.TargetURL != nil {
			targetURL = in.TargetURL
		}
		if targetURL == nil || !models.ValidTargetURL(*targetURL) {
			return nil, apperror.NewInvalidInput("target_url must be an absolute http(s) URL")
		}
		assignment.TargetType = models.TargetTypeURL
		assignment.TargetURL = targetURL
		assignment.ProfileID = nil
	case models.TargetTypeProfile:
		assignment.TargetType = models.TargetTypeProfile
		assignment.TargetURL = nil
		if in.ProfileID != nil {
			assignment.ProfileID = in.ProfileID
		}
	default:
		return nil, apperror.NewInvalidInput("target_type must be profile or url")
	}

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, apperror.NewUpstream(err)
	}

	s.recorder.RecordDetached(assignment.TagID, models.TagEventTargetChange, map[string]any{
		"owner_user_id": assignment.UserID,
		"target_type":   string(assignment.TargetType),
	})

	// Drop any cached public resolution for this tag's token.
	tagID := assignment.TagID
	s.runner.Go("purge_redirect_cache", func(ctx context.Context) error {
		tag, err := s.tags.GetByID(ctx, tagID)
		if err != nil || tag == nil {
			return err
		}
		return s.purger.Purge(ctx, tag.PublicToken)
	})

	return assignment, nil
}

// ListForUser lists the caller's assignments for the dashboard
func (s *ClaimService) ListForUser(ctx context.Context, userID string) ([]*models.TagAssignment, error) {
	assignments, err := s.assignments.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.NewUpstream(err)
	}
	return assignments, nil
}

// credentialKind reports which identifier the claimant used, for event
// attribution
func credentialKind(tag *models.HardwareTag, credential string) string {
	switch {
	case tag.ClaimCode != nil && *tag.ClaimCode == credential:
		return "claim_code"
	case tag.ChipUID == credential:
		return "chip_uid"
	default:
		return "public_token"
	}
}
