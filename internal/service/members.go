package service

import (
	"context"
	"fmt"
	"strings"

	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
	"familyplanner/internal/validation"
)

// Accent colors given to new members by role
const (
	ParentColor = "hsl(210 60% 50%)"
	ChildColor  = "hsl(340 70% 60%)"
)

// AvatarOptions are the glyphs offered when adding a member
var AvatarOptions = []string{"👨", "👩", "👦", "👧", "👶", "🧑", "👴", "👵"}

// MemberDraft is a member as entered before it has an id
type MemberDraft struct {
	Name   string
	Role   models.Role
	Avatar string
	Color  string // empty picks the role's default color
}

// DefaultColor returns the accent color for role
func DefaultColor(role models.Role) string {
	if role == models.RoleParent {
		return ParentColor
	}
	return ChildColor
}

// Validate checks the draft's name and role
func (d MemberDraft) Validate() error {
	var errs validation.Errors
	errs.Add(validation.ValidateName(d.Name))
	errs.Add(validation.ValidateRole(d.Role))
	return errs.Err()
}

func (d MemberDraft) member() models.Member {
	m := models.Member{
		Name:  strings.TrimSpace(d.Name),
		Role:  d.Role,
		Color: d.Color,
	}
	if m.Color == "" {
		m.Color = DefaultColor(d.Role)
	}
	if avatar := strings.TrimSpace(d.Avatar); avatar != "" {
		m.Avatar = &avatar
	}
	return m
}

// RequestAddMember adds a member to the family
func (c *Coordinator) RequestAddMember(ctx context.Context, draft MemberDraft, perms permissions.Set) (models.Member, error) {
	if !perms.ManageMembers {
		return models.Member{}, fmt.Errorf("add member: %w", ErrPermissionDenied)
	}
	if err := draft.Validate(); err != nil {
		return models.Member{}, err
	}

	m, err := c.store.CreateMember(ctx, draft.member())
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

// RequestUpdateMember changes the fields present in patch
func (c *Coordinator) RequestUpdateMember(ctx context.Context, id string, patch models.MemberPatch, perms permissions.Set) (models.Member, error) {
	if !perms.ManageMembers {
		return models.Member{}, fmt.Errorf("update member %s: %w", id, ErrPermissionDenied)
	}

	var errs validation.Errors
	if patch.Name != nil {
		errs.Add(validation.ValidateName(*patch.Name))
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Role != nil {
		errs.Add(validation.ValidateRole(*patch.Role))
	}
	if err := errs.Err(); err != nil {
		return models.Member{}, err
	}

	m, err := c.store.UpdateMember(ctx, id, patch)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to update member: %w", err)
	}
	return m, nil
}

// RequestRemoveMember deletes a member. Activities referencing the member
// keep the dangling id.
func (c *Coordinator) RequestRemoveMember(ctx context.Context, id string, perms permissions.Set) error {
	if !perms.ManageMembers {
		return fmt.Errorf("remove member %s: %w", id, ErrPermissionDenied)
	}
	if err := c.store.DeleteMember(ctx, id); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// Onboard creates the first members of a family in order. Every draft needs a
// name and at least one must be a parent. The remembered active member is
// cleared and the default rule re-applied to the new family. Members created
// before a failure are returned with the error.
func (c *Coordinator) Onboard(ctx context.Context, drafts []MemberDraft) ([]models.Member, error) {
	if len(c.store.Members()) > 0 {
		return nil, ErrFamilyNotEmpty
	}
	hasParent := false
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("member %d: %w", i+1, err)
		}
		if d.Role == models.RoleParent {
			hasParent = true
		}
	}
	if !hasParent {
		return nil, ErrNoParent
	}

	created := make([]models.Member, 0, len(drafts))
	for _, d := range drafts {
		d.Color = DefaultColor(d.Role)
		m, err := c.store.CreateMember(ctx, d.member())
		if err != nil {
			return created, fmt.Errorf("failed to save family members: %w", err)
		}
		created = append(created, m)
	}

	if c.identity != nil {
		if err := c.identity.Reset(ctx, c.store.Members()); err != nil {
			return created, err
		}
	}
	return created, nil
}
