// Package store holds the in-memory snapshot of members and activities and
// mediates every change through a Backend. Mutations are confirm-then-apply:
// the snapshot only changes after the backend reports success.
package store

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"familyplanner/internal/metrics"
	"familyplanner/internal/models"
)

// Store is safe for concurrent use. Backend calls are made without holding
// the snapshot lock, so when two mutations race the last response wins.
type Store struct {
	backend Backend
	metrics *metrics.Recorder

	mu         sync.RWMutex
	members    []models.Member
	activities []models.Activity
	loading    bool
	err        error

	listenersMu sync.Mutex
	listeners   []func([]models.Member)
}

// New creates an empty store. rec may be nil.
func New(backend Backend, rec *metrics.Recorder) *Store {
	return &Store{
		backend:    backend,
		metrics:    rec,
		members:    []models.Member{},
		activities: []models.Activity{},
	}
}

// Members returns a copy of the member snapshot in load order
func (s *Store) Members() []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneMembers(s.members)
}

// Activities returns a copy of the activity snapshot in load order
func (s *Store) Activities() []models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Activity, len(s.activities))
	for i, a := range s.activities {
		out[i] = a.Clone()
	}
	return out
}

// Member looks up a member by id in the snapshot
func (s *Store) Member(id string) (models.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.memberIndex(id)
	if i < 0 {
		return models.Member{}, false
	}
	return s.members[i].Clone(), true
}

// Activity looks up an activity by id in the snapshot
func (s *Store) Activity(id string) (models.Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.activityIndex(id)
	if i < 0 {
		return models.Activity{}, false
	}
	return s.activities[i].Clone(), true
}

// Loading reports whether a LoadAll is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last LoadAll, or nil if it succeeded
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// OnMembersChanged registers fn to be called with the member list after every
// successful load or member mutation
func (s *Store) OnMembersChanged(fn func([]models.Member)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notifyMembers() {
	members := s.Members()
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(models.CloneMembers(members))
	}
}

// LoadAll fetches both collections. The snapshot is replaced only when both
// fetches succeed; otherwise the previous snapshot is kept and the error is
// recorded for Err.
func (s *Store) LoadAll(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	var (
		wg                     sync.WaitGroup
		memberRows, actRows    []Row
		memberErr, activityErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		memberRows, memberErr = s.fetch(ctx, CollectionMembers)
	}()
	go func() {
		defer wg.Done()
		actRows, activityErr = s.fetch(ctx, CollectionActivities)
	}()
	wg.Wait()

	members, activities, err := decodeAll(memberRows, memberErr, actRows, activityErr)
	if err != nil {
		log.Printf("Error loading family data: %v", err)
		s.mu.Lock()
		s.loading = false
		s.err = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.members = members
	s.activities = activities
	s.loading = false
	s.mu.Unlock()

	s.metrics.SetSnapshotSize(CollectionMembers, len(members))
	s.metrics.SetSnapshotSize(CollectionActivities, len(activities))
	s.notifyMembers()
	return nil
}

func decodeAll(memberRows []Row, memberErr error, actRows []Row, activityErr error) ([]models.Member, []models.Activity, error) {
	if memberErr != nil {
		return nil, nil, memberErr
	}
	if activityErr != nil {
		return nil, nil, activityErr
	}

	members := make([]models.Member, 0, len(memberRows))
	for _, row := range memberRows {
		m, err := memberFromRow(row)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode member: %w", err)
		}
		members = append(members, m)
	}

	activities := make([]models.Activity, 0, len(actRows))
	for _, row := range actRows {
		a, err := activityFromRow(row)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		activities = append(activities, a)
	}
	return members, activities, nil
}

// CreateMember inserts m and appends the confirmed member to the snapshot.
// The caller is responsible for validation.
func (s *Store) CreateMember(ctx context.Context, m models.Member) (models.Member, error) {
	row, err := s.insert(ctx, CollectionMembers, memberRow(m))
	if err != nil {
		return models.Member{}, err
	}
	created, err := memberFromRow(row)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to decode created member: %w", err)
	}

	s.mu.Lock()
	s.members = append(s.members, created)
	n := len(s.members)
	s.mu.Unlock()

	s.metrics.SetSnapshotSize(CollectionMembers, n)
	s.notifyMembers()
	return created.Clone(), nil
}

// UpdateMember sends only the fields present in patch and replaces the
// snapshot entry with the confirmed member
func (s *Store) UpdateMember(ctx context.Context, id string, patch models.MemberPatch) (models.Member, error) {
	if patch.IsEmpty() {
		if m, ok := s.Member(id); ok {
			return m, nil
		}
		return models.Member{}, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}

	row, err := s.patch(ctx, CollectionMembers, id, memberPatchRow(patch))
	if err != nil {
		return models.Member{}, err
	}
	updated, err := memberFromRow(row)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to decode updated member: %w", err)
	}

	s.mu.Lock()
	i := s.memberIndex(id)
	if i >= 0 {
		s.members[i] = updated
	}
	s.mu.Unlock()

	if i < 0 {
		return models.Member{}, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	s.notifyMembers()
	return updated.Clone(), nil
}

// DeleteMember removes the member remotely, then from the snapshot. Activities
// referencing the member are left untouched.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	if err := s.remove(ctx, CollectionMembers, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.members = slices.DeleteFunc(s.members, func(m models.Member) bool { return m.ID == id })
	n := len(s.members)
	s.mu.Unlock()

	s.metrics.SetSnapshotSize(CollectionMembers, n)
	s.notifyMembers()
	return nil
}

// CreateActivity inserts a and appends the confirmed activity to the snapshot.
// The caller is responsible for validation.
func (s *Store) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	row, err := s.insert(ctx, CollectionActivities, activityRow(a))
	if err != nil {
		return models.Activity{}, err
	}
	created, err := activityFromRow(row)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to decode created activity: %w", err)
	}

	s.mu.Lock()
	s.activities = append(s.activities, created)
	n := len(s.activities)
	s.mu.Unlock()

	s.metrics.SetSnapshotSize(CollectionActivities, n)
	return created.Clone(), nil
}

// UpdateActivity sends only the fields present in patch and replaces the
// snapshot entry with the confirmed activity
func (s *Store) UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (models.Activity, error) {
	if patch.IsEmpty() {
		if a, ok := s.Activity(id); ok {
			return a, nil
		}
		return models.Activity{}, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}

	row, err := s.patch(ctx, CollectionActivities, id, activityPatchRow(patch))
	if err != nil {
		return models.Activity{}, err
	}
	updated, err := activityFromRow(row)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to decode updated activity: %w", err)
	}

	s.mu.Lock()
	i := s.activityIndex(id)
	if i >= 0 {
		s.activities[i] = updated
	}
	s.mu.Unlock()

	if i < 0 {
		return models.Activity{}, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return updated.Clone(), nil
}

// DeleteActivity removes the activity remotely, then from the snapshot.
// Deleting an id that is already gone is not an error.
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	if err := s.remove(ctx, CollectionActivities, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.activities = slices.DeleteFunc(s.activities, func(a models.Activity) bool { return a.ID == id })
	n := len(s.activities)
	s.mu.Unlock()

	s.metrics.SetSnapshotSize(CollectionActivities, n)
	return nil
}

// ToggleCompletion flips the completed flag of the activity. It returns nil,
// nil without calling the backend when id is not in the snapshot.
func (s *Store) ToggleCompletion(ctx context.Context, id string) (*models.Activity, error) {
	current, ok := s.Activity(id)
	if !ok {
		return nil, nil
	}
	completed := !current.Completed
	updated, err := s.UpdateActivity(ctx, id, models.ActivityPatch{Completed: &completed})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) memberIndex(id string) int {
	return slices.IndexFunc(s.members, func(m models.Member) bool { return m.ID == id })
}

func (s *Store) activityIndex(id string) int {
	return slices.IndexFunc(s.activities, func(a models.Activity) bool { return a.ID == id })
}

func (s *Store) fetch(ctx context.Context, collection string) ([]Row, error) {
	start := time.Now()
	rows, err := s.backend.FetchAll(ctx, collection)
	s.metrics.ObserveRemote(collection, OpFetch, start, err)
	if err != nil {
		return nil, &RemoteError{Op: OpFetch, Collection: collection, Err: err}
	}
	return rows, nil
}

func (s *Store) insert(ctx context.Context, collection string, fields Row) (Row, error) {
	start := time.Now()
	row, err := s.backend.Insert(ctx, collection, fields)
	s.metrics.ObserveRemote(collection, OpInsert, start, err)
	if err != nil {
		log.Printf("Error adding to %s: %v", collection, err)
		return nil, &RemoteError{Op: OpInsert, Collection: collection, Err: err}
	}
	return row, nil
}

func (s *Store) patch(ctx context.Context, collection, id string, fields Row) (Row, error) {
	start := time.Now()
	row, err := s.backend.Patch(ctx, collection, id, fields)
	s.metrics.ObserveRemote(collection, OpPatch, start, err)
	if err != nil {
		log.Printf("Error updating %s %s: %v", collection, id, err)
		return nil, &RemoteError{Op: OpPatch, Collection: collection, Err: err}
	}
	return row, nil
}

func (s *Store) remove(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := s.backend.Remove(ctx, collection, id)
	s.metrics.ObserveRemote(collection, OpRemove, start, err)
	if err != nil {
		log.Printf("Error deleting %s %s: %v", collection, id, err)
		return &RemoteError{Op: OpRemove, Collection: collection, Err: err}
	}
	return nil
}
