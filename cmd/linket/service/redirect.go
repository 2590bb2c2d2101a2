package service

import (
	"context"
	"net/url"

	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/logger"
	"github.com/linkethq/linket/common/tasks"
)

// Well-known redirect destinations
const (
	HomePath         = "/"
	DashboardPath    = "/dashboard/linkets"
	MissingTagPath   = "/missing-tag"
	UnrecognizedPath = "/unrecognized"
	LegacyClaimPath  = "/claim"
)

// RedirectService resolves a scanned token to exactly one destination.
// The public scan experience never sees an error: every failure on this
// path degrades to a redirect home.
type RedirectService struct {
	tags        TagStore
	assignments AssignmentStore
	profiles    *ProfileResolver
	recorder    *EventService
	runner      *tasks.Runner
	log         *logger.Logger
}

// NewRedirectService creates a new redirect resolver
func NewRedirectService(
	tags TagStore,
	assignments AssignmentStore,
	profiles *ProfileResolver,
	recorder *EventService,
	runner *tasks.Runner,
	log *logger.Logger,
) *RedirectService {
	return &RedirectService{
		tags:        tags,
		assignments: assignments,
		profiles:    profiles,
		recorder:    recorder,
		runner:      runner,
		log:         log,
	}
}

// ClaimFlowPath builds the claim-flow destination carrying the scanned
// token so the claimant can bind it
func ClaimFlowPath(token string) string {
	return DashboardPath + "?claim=" + url.QueryEscape(token)
}

// Resolve maps a public token to its redirect destination. It always
// returns a usable location; the zero outcome is home.
//
// Ordering within one resolution is fixed: tag lookup, then assignment
// lookup, then target resolution. The scan event and click increment are
// detached and never delay the returned location.
func (s *RedirectService) Resolve(ctx context.Context, token string) string {
	if token == "" {
		return HomePath
	}

	tag, err := s.tags.GetByPublicToken(ctx, token)
	if err != nil {
		s.log.Warn("tag lookup failed, redirecting home", "token", token, "error", err)
		return HomePath
	}
	if tag == nil {
		// Unknown token: fail silently, do not leak existence, no event.
		return HomePath
	}

	if tag.Status.IsClaimable() {
		s.recorder.RecordScan(tag, nil)
		return ClaimFlowPath(token)
	}

	// claimed and retired resolve identically
	return s.resolveAssigned(ctx, tag)
}

// ResolveChip is the legacy variant keyed by chip UID. Destinations differ
// from the token path: /missing-tag, /unrecognized?tag=..., /claim?tag=...
// for the absent/unknown/unassigned cases, else the profile handle.
func (s *RedirectService) ResolveChip(ctx context.Context, chipUID string) string {
	if chipUID == "" {
		return MissingTagPath
	}

	tag, err := s.tags.GetByChipUID(ctx, chipUID)
	if err != nil {
		s.log.Warn("chip lookup failed", "chip_uid", chipUID, "error", err)
		return MissingTagPath
	}
	if tag == nil {
		return UnrecognizedPath + "?tag=" + url.QueryEscape(chipUID)
	}

	assignment, err := s.assignments.GetByTagID(ctx, tag.ID)
	if err != nil {
		s.log.Warn("assignment lookup failed", "tag_id", tag.ID, "error", err)
		return MissingTagPath
	}
	if assignment == nil {
		s.recorder.RecordScan(tag, nil)
		return LegacyClaimPath + "?tag=" + url.QueryEscape(tag.PublicToken)
	}

	s.recorder.RecordScan(tag, assignment)

	profile, err := s.profiles.Destination(ctx, assignment)
	if err != nil || profile == nil {
		return MissingTagPath
	}
	return "/" + profile.Handle
}

// resolveAssigned handles a claimed (or retired) tag: explicit URL target,
// then override link, then profile page, then the dashboard as a last resort.
func (s *RedirectService) resolveAssigned(ctx context.Context, tag *models.HardwareTag) string {
	assignment, err := s.assignments.GetByTagID(ctx, tag.ID)
	if err != nil {
		s.log.Warn("assignment lookup failed, redirecting home", "tag_id", tag.ID, "error", err)
		s.recorder.RecordScan(tag, nil)
		return HomePath
	}
	if assignment == nil {
		// Claimed tag without an assignment: tolerated, lands on the
		// dashboard so the owner can repair it.
		s.recorder.RecordScan(tag, nil)
		return DashboardPath
	}

	s.recorder.RecordScan(tag, assignment)

	if assignment.TargetType == models.TargetTypeURL && assignment.TargetURL != nil {
		if models.ValidTargetURL(*assignment.TargetURL) {
			return *assignment.TargetURL
		}
		// A stored URL that no longer validates falls through to profile
		// resolution instead of erroring.
		s.log.Warn("stored target_url failed validation, falling through",
			"assignment_id", assignment.ID,
		)
	}

	profile, err := s.profiles.Destination(ctx, assignment)
	if err != nil {
		s.log.Warn("profile resolution failed, redirecting to dashboard",
			"assignment_id", assignment.ID, "error", err)
		return DashboardPath
	}
	if profile == nil {
		return DashboardPath
	}

	link, err := s.profiles.OverrideLink(ctx, profile.ID)
	if err != nil {
		s.log.Warn("override link lookup failed, using profile page",
			"profile_id", profile.ID, "error", err)
		return "/" + profile.Handle
	}
	if link != nil {
		linkID := link.ID
		s.runner.Go("increment_link_clicks", func(ctx context.Context) error {
			return s.profiles.IncrementClicks(ctx, linkID)
		})
		return link.URL
	}

	return "/" + profile.Handle
}
