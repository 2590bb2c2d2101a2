package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/cmd/linket/repository"
	"github.com/linkethq/linket/common/logger"
	"github.com/linkethq/linket/common/tasks"
)

// In-memory store fakes. Mutexes matter: detached tasks touch the fakes
// concurrently with test assertions until Runner.Wait returns.

type fakeTagStore struct {
	mu   sync.Mutex
	tags map[uuid.UUID]*models.HardwareTag
	err  error
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{tags: make(map[uuid.UUID]*models.HardwareTag)}
}

func (s *fakeTagStore) add(tag *models.HardwareTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tag.ID] = tag
}

func (s *fakeTagStore) GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if tag, ok := s.tags[id]; ok {
		copied := *tag
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeTagStore) GetByPublicToken(ctx context.Context, token string) (*models.HardwareTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, tag := range s.tags {
		if tag.PublicToken == token {
			copied := *tag
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeTagStore) GetByChipUID(ctx context.Context, chipUID string) (*models.HardwareTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, tag := range s.tags {
		if tag.ChipUID == chipUID {
			copied := *tag
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeTagStore) FindByClaimCredential(ctx context.Context, credential string) (*models.HardwareTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, tag := range s.tags {
		if tag.ClaimCode != nil && *tag.ClaimCode == credential {
			copied := *tag
			return &copied, nil
		}
	}
	for _, tag := range s.tags {
		if tag.ChipUID == credential || tag.PublicToken == credential {
			copied := *tag
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeTagStore) ClaimIfClaimable(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	tag, ok := s.tags[id]
	if !ok || !tag.Status.IsClaimable() {
		return false, nil
	}
	tag.Status = models.TagStatusClaimed
	tag.LastClaimedAt = &at
	tag.UpdatedAt = at
	return true, nil
}

func (s *fakeTagStore) SetStatus(ctx context.Context, id uuid.UUID, status models.TagStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	tag, ok := s.tags[id]
	if !ok {
		return nil
	}
	tag.Status = status
	return nil
}

func (s *fakeTagStore) ListExportWindow(ctx context.Context, batchID *uuid.UUID, after *repository.ExportCursor, limit int) ([]*repository.ExportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	var all []*repository.ExportRow
	for _, tag := range s.tags {
		if batchID != nil && (tag.BatchID == nil || *tag.BatchID != *batchID) {
			continue
		}
		copied := *tag
		all = append(all, &repository.ExportRow{HardwareTag: copied})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	var window []*repository.ExportRow
	for _, row := range all {
		if after != nil {
			if row.CreatedAt.Before(after.CreatedAt) {
				continue
			}
			if row.CreatedAt.Equal(after.CreatedAt) && row.ID.String() <= after.ID.String() {
				continue
			}
		}
		window = append(window, row)
		if len(window) == limit {
			break
		}
	}
	return window, nil
}

type fakeAssignmentStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*models.TagAssignment
	err         error
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{assignments: make(map[uuid.UUID]*models.TagAssignment)}
}

func (s *fakeAssignmentStore) add(a *models.TagAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.assignments[a.ID] = a
}

func (s *fakeAssignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.TagAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.assignments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeAssignmentStore) GetByTagID(ctx context.Context, tagID uuid.UUID) (*models.TagAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, a := range s.assignments {
		if a.TagID == tagID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeAssignmentStore) ListByUserID(ctx context.Context, userID string) ([]*models.TagAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var result []*models.TagAssignment
	for _, a := range s.assignments {
		if a.UserID == userID {
			copied := *a
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *fakeAssignmentStore) Upsert(ctx context.Context, a *models.TagAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	now := time.Now()
	for _, existing := range s.assignments {
		if existing.TagID == a.TagID {
			existing.UserID = a.UserID
			existing.ProfileID = a.ProfileID
			existing.Nickname = a.Nickname
			existing.TargetType = a.TargetType
			existing.TargetURL = a.TargetURL
			existing.UpdatedAt = now
			a.ID = existing.ID
			a.CreatedAt = existing.CreatedAt
			a.UpdatedAt = now
			return nil
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	copied := *a
	s.assignments[a.ID] = &copied
	return nil
}

func (s *fakeAssignmentStore) Update(ctx context.Context, a *models.TagAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := *a
	copied.UpdatedAt = time.Now()
	s.assignments[a.ID] = &copied
	return nil
}

func (s *fakeAssignmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.assignments, id)
	return nil
}

func (s *fakeAssignmentStore) TouchLastRedirected(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assignments[id]; ok {
		a.LastRedirectedAt = &at
	}
	return nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.UserProfile
	links    []*models.ProfileLink
	clicks   map[uuid.UUID]int64
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles: make(map[uuid.UUID]*models.UserProfile),
		clicks:   make(map[uuid.UUID]int64),
	}
}

func (s *fakeProfileStore) add(p *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *fakeProfileStore) addLink(l *models.ProfileLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, l)
}

func (s *fakeProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeProfileStore) GetActiveByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.UserProfile
	for _, p := range s.profiles {
		if p.UserID == userID && p.Active {
			if found == nil || p.CreatedAt.Before(found.CreatedAt) {
				found = p
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (s *fakeProfileStore) FirstOverrideLink(ctx context.Context, profileID uuid.UUID) (*models.ProfileLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []*models.ProfileLink
	for _, l := range s.links {
		if l.ProfileID == profileID && l.IsActive && l.IsOverride {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].OrderIndex != candidates[j].OrderIndex {
			return candidates[i].OrderIndex < candidates[j].OrderIndex
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	copied := *candidates[0]
	return &copied, nil
}

func (s *fakeProfileStore) IncrementLinkClicks(ctx context.Context, linkID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks[linkID]++
	return nil
}

func (s *fakeProfileStore) clicksFor(linkID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks[linkID]
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []*models.TagEvent
	err    error
}

func (s *fakeEventStore) Insert(ctx context.Context, event *models.TagEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

func (s *fakeEventStore) all() []*models.TagEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.TagEvent(nil), s.events...)
}

func (s *fakeEventStore) ofType(eventType models.TagEventType) []*models.TagEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.TagEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fakeBatchStore writes minted tags through to the tag store so export
// tests see what mint produced
type fakeBatchStore struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*models.HardwareTagBatch
	tags    *fakeTagStore
	err     error
}

func newFakeBatchStore(tags *fakeTagStore) *fakeBatchStore {
	return &fakeBatchStore{
		batches: make(map[uuid.UUID]*models.HardwareTagBatch),
		tags:    tags,
	}
}

func (s *fakeBatchStore) GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareTagBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if b, ok := s.batches[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeBatchStore) Mint(ctx context.Context, batch *models.HardwareTagBatch, tags []*models.HardwareTag) error {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return s.err
	}
	s.batches[batch.ID] = batch
	s.mu.Unlock()

	for _, tag := range tags {
		s.tags.add(tag)
	}
	return nil
}

type fakePurger struct {
	mu     sync.Mutex
	purged []string
}

func (p *fakePurger) Purge(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, token)
	return nil
}

func (p *fakePurger) tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.purged...)
}

// testEnv assembles the service graph over the fakes
type testEnv struct {
	tags        *fakeTagStore
	assignments *fakeAssignmentStore
	profiles    *fakeProfileStore
	events      *fakeEventStore
	batches     *fakeBatchStore
	purger      *fakePurger
	runner      *tasks.Runner

	resolver *ProfileResolver
	recorder *EventService
	redirect *RedirectService
	claim    *ClaimService
	mint     *MintService
}

const testOrigin = "https://linket.to"

func newTestEnv() *testEnv {
	log := logger.New("error", "json")
	env := &testEnv{
		tags:        newFakeTagStore(),
		assignments: newFakeAssignmentStore(),
		profiles:    newFakeProfileStore(),
		events:      &fakeEventStore{},
		purger:      &fakePurger{},
		runner:      tasks.NewRunner(log),
	}
	env.batches = newFakeBatchStore(env.tags)

	env.resolver = NewProfileResolver(env.profiles, log)
	env.recorder = NewEventService(env.events, env.assignments, env.runner, log)
	env.redirect = NewRedirectService(env.tags, env.assignments, env.resolver, env.recorder, env.runner, log)
	env.claim = NewClaimService(env.tags, env.assignments, env.resolver, env.recorder, env.purger, env.runner, log)
	env.mint = NewMintService(env.batches, env.tags, testOrigin, log)
	return env
}

// flush waits for detached side effects before assertions
func (env *testEnv) flush() {
	env.runner.Wait()
}

func strPtr(s string) *string { return &s }

func newStoredTag(token, chipUID, code string, status models.TagStatus) *models.HardwareTag {
	now := time.Now()
	return &models.HardwareTag{
		ID:          uuid.New(),
		ChipUID:     chipUID,
		PublicToken: token,
		ClaimCode:   &code,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
