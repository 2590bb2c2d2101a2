package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/logger"
	"github.com/linkethq/linket/common/tasks"
)

// EventService records tag events. Recording is always best-effort: a
// failed insert is logged and swallowed, never surfaced to the caller.
type EventService struct {
	events      EventStore
	assignments AssignmentStore
	runner      *tasks.Runner
	log         *logger.Logger
}

// NewEventService creates a new event recorder
func NewEventService(events EventStore, assignments AssignmentStore, runner *tasks.Runner, log *logger.Logger) *EventService {
	return &EventService{
		events:      events,
		assignments: assignments,
		runner:      runner,
		log:         log,
	}
}

// Record appends one event synchronously. Never returns an error.
func (s *EventService) Record(ctx context.Context, tagID uuid.UUID, eventType models.TagEventType, metadata map[string]any) {
	event := &models.TagEvent{
		TagID:      tagID,
		EventType:  eventType,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := s.events.Insert(ctx, event); err != nil {
		s.log.Warn("failed to record tag event",
			"tag_id", tagID,
			"event_type", eventType,
			"error", err,
		)
	}
}

// RecordDetached appends one event on a detached task so the caller's
// response never waits on the insert
func (s *EventService) RecordDetached(tagID uuid.UUID, eventType models.TagEventType, metadata map[string]any) {
	s.runner.Go("record_event", func(ctx context.Context) error {
		s.Record(ctx, tagID, eventType, metadata)
		return nil
	})
}

// RecordScan records a scan of a tag. When the tag has an assignment the
// metadata carries owner attribution (current naming plus legacy aliases)
// and the assignment's last_redirected_at is stamped on a sibling task,
// concurrent with the event insert rather than sequenced after it.
func (s *EventService) RecordScan(tag *models.HardwareTag, assignment *models.TagAssignment) {
	metadata := map[string]any{
		"public_token": tag.PublicToken,
		"status":       string(tag.Status),
	}
	if assignment != nil {
		for k, v := range models.ScanMetadata(assignment) {
			metadata[k] = v
		}
	}

	s.RecordDetached(tag.ID, models.TagEventScan, metadata)

	if assignment != nil {
		assignmentID := assignment.ID
		s.runner.Go("touch_last_redirected", func(ctx context.Context) error {
			return s.assignments.TouchLastRedirected(ctx, assignmentID, time.Now())
		})
	}
}
