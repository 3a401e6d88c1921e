// Package identity tracks which family member is currently acting and keeps
// that choice across restarts through a Preferences store.
package identity

import (
	"context"
	"fmt"
	"log"
	"sync"

	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
)

// PreferenceKey is the preference under which the active member id is kept
const PreferenceKey = "activeMemberId"

// State of a Resolver
type State int

const (
	// Unresolved means no member has been selected yet
	Unresolved State = iota
	// Resolved means exactly one member is acting
	Resolved
)

func (s State) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "unresolved"
}

// Preferences is a key-value store that survives process restarts
type Preferences interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemberSource notifies listeners when the member list changes
type MemberSource interface {
	OnMembersChanged(fn func([]models.Member))
}

// Resolver selects the active member. Create one per session and pass it to
// whatever needs the acting identity.
type Resolver struct {
	prefs Preferences

	mu     sync.RWMutex
	state  State
	active *models.Member
}

// NewResolver creates an unresolved resolver backed by prefs
func NewResolver(prefs Preferences) *Resolver {
	return &Resolver{prefs: prefs}
}

// State returns the current resolution state
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Active returns a copy of the acting member, or nil when unresolved
func (r *Resolver) Active() *models.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return nil
	}
	m := *r.active
	return &m
}

// Permissions derives the capability set of the acting member
func (r *Resolver) Permissions() permissions.Set {
	return permissions.Derive(r.Active())
}

// Reconcile brings the active member in line with members.
//
// An unresolved resolver restores the persisted id when it is still present and
// otherwise falls back to the first parent, or the first member. A resolved
// resolver refreshes its copy of the active member in place, and re-applies the
// default when the active member has been removed. An empty list changes
// nothing: once Resolved, the resolver never returns to Unresolved.
func (r *Resolver) Reconcile(ctx context.Context, members []models.Member) error {
	r.mu.Lock()
	state, active := r.state, r.active
	r.mu.Unlock()

	if len(members) == 0 {
		return nil
	}

	if state == Resolved && active != nil {
		if current, ok := find(members, active.ID); ok {
			if !sameMember(current, *active) {
				r.set(Resolved, &current)
			}
			return nil
		}
		return r.applyDefault(ctx, members)
	}

	id, ok, err := r.prefs.Get(ctx, PreferenceKey)
	if err != nil {
		log.Printf("Error reading active member preference: %v", err)
	}
	if ok {
		if m, found := find(members, id); found {
			r.set(Resolved, &m)
			return nil
		}
	}
	return r.applyDefault(ctx, members)
}

// SetActive makes m the acting member and persists the choice
func (r *Resolver) SetActive(ctx context.Context, m models.Member) error {
	r.set(Resolved, &m)
	if err := r.prefs.Set(ctx, PreferenceKey, m.ID); err != nil {
		return fmt.Errorf("failed to persist active member: %w", err)
	}
	return nil
}

// Forget clears the persisted choice. The in-memory selection is kept.
func (r *Resolver) Forget(ctx context.Context) error {
	if err := r.prefs.Delete(ctx, PreferenceKey); err != nil {
		return fmt.Errorf("failed to clear active member: %w", err)
	}
	return nil
}

// Reset forgets the persisted choice and selects the default member of
// members, as a fresh start with nothing remembered would. An empty list only
// clears the preference.
func (r *Resolver) Reset(ctx context.Context, members []models.Member) error {
	if err := r.Forget(ctx); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	return r.applyDefault(ctx, members)
}

// Watch reconciles on every member change reported by src. Failures to
// persist are logged since there is no caller to return them to.
func (r *Resolver) Watch(ctx context.Context, src MemberSource) {
	src.OnMembersChanged(func(members []models.Member) {
		if err := r.Reconcile(ctx, members); err != nil {
			log.Printf("Error reconciling active member: %v", err)
		}
	})
}

func (r *Resolver) applyDefault(ctx context.Context, members []models.Member) error {
	return r.SetActive(ctx, DefaultMember(members))
}

func (r *Resolver) set(state State, m *models.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.active = m
}

// DefaultMember picks the first parent, or the first member when there is no
// parent. members must not be empty.
func DefaultMember(members []models.Member) models.Member {
	for _, m := range members {
		if m.Role == models.RoleParent {
			return m
		}
	}
	return members[0]
}

func find(members []models.Member, id string) (models.Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return models.Member{}, false
}

func sameMember(a, b models.Member) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Role != b.Role || a.Color != b.Color {
		return false
	}
	if (a.Avatar == nil) != (b.Avatar == nil) {
		return false
	}
	return a.Avatar == nil || *a.Avatar == *b.Avatar
}
