package models

// Role identifies what a family member is allowed to do
type Role string

const (
	RoleParent    Role = "parent"
	RoleChild     Role = "child"
	RoleCaregiver Role = "caregiver"
)

// Roles lists every declared role
var Roles = []Role{RoleParent, RoleChild, RoleCaregiver}

// Valid reports whether r is a declared role
func (r Role) Valid() bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// Member represents a person belonging to the family
type Member struct {
	ID     string
	Name   string
	Role   Role
	Avatar *string // display glyph, optional
	Color  string
}

// AvatarOr returns the avatar or the fallback when none is set
func (m Member) AvatarOr(fallback string) string {
	if m.Avatar == nil || *m.Avatar == "" {
		return fallback
	}
	return *m.Avatar
}

// Clone returns a copy that shares no pointers with m
func (m Member) Clone() Member {
	c := m
	c.Avatar = clonePtr(m.Avatar)
	return c
}

// CloneMembers deep-copies a member list
func CloneMembers(members []Member) []Member {
	if members == nil {
		return nil
	}
	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = m.Clone()
	}
	return out
}

// MemberPatch carries the fields of a member update; nil fields are left untouched
type MemberPatch struct {
	Name   *string
	Role   *Role
	Avatar *string
	Color  *string
}

// IsEmpty reports whether the patch changes nothing
func (p MemberPatch) IsEmpty() bool {
	return p.Name == nil && p.Role == nil && p.Avatar == nil && p.Color == nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
