// Package permissions derives the capability set of the acting family member.
package permissions

import "familyplanner/internal/models"

// Set holds the capability flags for one identity
type Set struct {
	CreateActivity    bool
	EditActivity      bool
	DeleteActivity    bool
	ManageMembers     bool
	AssignTasks       bool
	ViewAllActivities bool
	CompleteOwnTasks  bool
}

var (
	none = Set{}

	full = Set{
		CreateActivity:    true,
		EditActivity:      true,
		DeleteActivity:    true,
		ManageMembers:     true,
		AssignTasks:       true,
		ViewAllActivities: true,
		CompleteOwnTasks:  true,
	}

	ownTasksOnly = Set{CompleteOwnTasks: true}
)

// profiles maps every declared role to its capability set.
// Caregivers get the child profile until they have one of their own.
var profiles = map[models.Role]Set{
	models.RoleParent:    full,
	models.RoleChild:     ownTasksOnly,
	models.RoleCaregiver: ownTasksOnly,
}

// Derive returns the capabilities of identity; a nil identity has none
func Derive(identity *models.Member) Set {
	if identity == nil {
		return none
	}
	return ForRole(identity.Role)
}

// ForRole returns the profile of a role. Undeclared roles collapse to the child profile.
func ForRole(role models.Role) Set {
	if set, ok := profiles[role]; ok {
		return set
	}
	return ownTasksOnly
}

// HasProfile reports whether role has an explicit entry in the profile table
func HasProfile(role models.Role) bool {
	_, ok := profiles[role]
	return ok
}

// CanToggle reports whether identity may flip the completion flag of activity.
// Editors may toggle anything; everyone else only what is assigned to them.
func (s Set) CanToggle(identity *models.Member, activity models.Activity) bool {
	if identity == nil {
		return false
	}
	if s.EditActivity {
		return true
	}
	return s.CompleteOwnTasks && activity.IsAssignedTo(identity.ID)
}
