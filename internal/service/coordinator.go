// Package service turns user intents into entity store calls. Every request
// is checked against the caller's permission set before anything is sent to
// the backend.
package service

import (
	"context"
	"errors"
	"fmt"

	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
	"familyplanner/internal/store"
	"familyplanner/internal/validation"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoParent         = errors.New("add at least one parent with a name")
	ErrFamilyNotEmpty   = errors.New("family already has members")
)

// EntityStore is the part of store.Store the coordinator drives
type EntityStore interface {
	Members() []models.Member
	Activities() []models.Activity
	Member(id string) (models.Member, bool)
	Activity(id string) (models.Activity, bool)
	CreateMember(ctx context.Context, m models.Member) (models.Member, error)
	UpdateMember(ctx context.Context, id string, patch models.MemberPatch) (models.Member, error)
	DeleteMember(ctx context.Context, id string) error
	CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (models.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
	ToggleCompletion(ctx context.Context, id string) (*models.Activity, error)
}

// IdentityStore is the part of identity.Resolver used by onboarding and import
type IdentityStore interface {
	Reset(ctx context.Context, members []models.Member) error
}

// Coordinator gates mutations by permission and validation
type Coordinator struct {
	store    EntityStore
	identity IdentityStore
}

// NewCoordinator creates a coordinator over s. identity may be nil when
// onboarding is not used.
func NewCoordinator(s EntityStore, identity IdentityStore) *Coordinator {
	return &Coordinator{store: s, identity: identity}
}

// RequestToggle flips completion of an activity. Editors may toggle any
// activity; others only activities assigned to them. An unknown id is a no-op.
func (c *Coordinator) RequestToggle(ctx context.Context, id string, identity *models.Member, perms permissions.Set) (*models.Activity, error) {
	a, ok := c.store.Activity(id)
	if !ok {
		return nil, nil
	}
	if !perms.CanToggle(identity, a) {
		return nil, fmt.Errorf("toggle activity %s: %w", id, ErrPermissionDenied)
	}

	updated, err := c.store.ToggleCompletion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle activity: %w", err)
	}
	return updated, nil
}

// RequestCreate validates form and creates an activity with identity as its
// creator. A nil identity is denied.
func (c *Coordinator) RequestCreate(ctx context.Context, form ActivityForm, identity *models.Member, perms permissions.Set) (models.Activity, error) {
	if identity == nil || !perms.CreateActivity {
		return models.Activity{}, fmt.Errorf("create activity: %w", ErrPermissionDenied)
	}
	if err := form.Validate(); err != nil {
		return models.Activity{}, err
	}

	a, err := form.activity(identity.ID)
	if err != nil {
		return models.Activity{}, err
	}

	created, err := c.store.CreateActivity(ctx, a)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to create activity: %w", err)
	}
	return created, nil
}

// RequestEdit validates form and overwrites the activity's fields with it.
// A nil identity is denied.
func (c *Coordinator) RequestEdit(ctx context.Context, id string, form ActivityForm, identity *models.Member, perms permissions.Set) (models.Activity, error) {
	if identity == nil || !perms.EditActivity {
		return models.Activity{}, fmt.Errorf("edit activity %s: %w", id, ErrPermissionDenied)
	}
	if err := form.Validate(); err != nil {
		return models.Activity{}, err
	}
	if _, ok := c.store.Activity(id); !ok {
		return models.Activity{}, fmt.Errorf("activity %s: %w", id, store.ErrNotFound)
	}

	patch, err := form.patch()
	if err != nil {
		return models.Activity{}, err
	}
	updated, err := c.store.UpdateActivity(ctx, id, patch)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to update activity: %w", err)
	}
	return updated, nil
}

// RequestDelete removes an activity. Deleting an unknown id succeeds.
func (c *Coordinator) RequestDelete(ctx context.Context, id string, perms permissions.Set) error {
	if !perms.DeleteActivity {
		return fmt.Errorf("delete activity %s: %w", id, ErrPermissionDenied)
	}
	if err := c.store.DeleteActivity(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// ErrorMessage turns a request error into the short message shown to the user
func ErrorMessage(err error) string {
	var verrs validation.Errors
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "You don't have permission to do that."
	case errors.As(err, &verrs) && len(verrs) > 0:
		return verrs[0].Message
	case validation.IsValidationError(err):
		var fe validation.ValidationError
		errors.As(err, &fe)
		return fe.Message
	case errors.Is(err, store.ErrNotFound):
		return "That item no longer exists."
	case store.IsRemoteFailure(err):
		return "Something went wrong saving your change. Please try again."
	}
	return err.Error()
}
