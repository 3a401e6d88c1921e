package models

import (
	"slices"
	"time"
)

// Category groups activities for display and filtering
type Category string

const (
	CategorySchool   Category = "school"
	CategorySports   Category = "sports"
	CategoryHealth   Category = "health"
	CategoryHome     Category = "home"
	CategoryPersonal Category = "personal"
)

// Categories lists every category in display order
var Categories = []Category{CategorySchool, CategorySports, CategoryHealth, CategoryHome, CategoryPersonal}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Recurrence is a label only; recurring activities are never expanded into instances
type Recurrence string

const (
	RecurrenceOnce    Recurrence = "once"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Recurrences lists every recurrence label
var Recurrences = []Recurrence{RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly}

// Valid reports whether r is a known recurrence label
func (r Recurrence) Valid() bool {
	return slices.Contains(Recurrences, r)
}

// Priority ranks an activity
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

// Activity is a schedulable item with a time, assignees and a completion flag
type Activity struct {
	ID               string
	Title            string
	Description      *string
	Category         Category
	StartTime        time.Time
	EndTime          *time.Time
	Recurrence       Recurrence
	AssignedTo       []string // member IDs owning the activity
	AssignedChildren []string // member IDs the activity is for
	Location         *string
	Notes            *string
	Priority         Priority
	Completed        bool
	CreatedBy        string // may reference a deleted member
}

// IsAssignedTo reports whether memberID owns or benefits from the activity
func (a Activity) IsAssignedTo(memberID string) bool {
	if memberID == "" {
		return false
	}
	return slices.Contains(a.AssignedTo, memberID) || slices.Contains(a.AssignedChildren, memberID)
}

// Clone returns a deep copy so snapshot readers can't mutate shared state
func (a Activity) Clone() Activity {
	c := a
	c.Description = clonePtr(a.Description)
	c.EndTime = clonePtr(a.EndTime)
	c.Location = clonePtr(a.Location)
	c.Notes = clonePtr(a.Notes)
	c.AssignedTo = slices.Clone(a.AssignedTo)
	c.AssignedChildren = slices.Clone(a.AssignedChildren)
	return c
}

// ActivityPatch carries the fields of an activity update; nil fields are not sent.
// A present optional string that is empty clears the stored value.
type ActivityPatch struct {
	Title            *string
	Description      *string
	Category         *Category
	StartTime        *time.Time
	EndTime          *time.Time
	ClearEndTime     bool // sends an absent end time; ignored when EndTime is set
	Recurrence       *Recurrence
	AssignedTo       []string
	AssignedChildren []string
	Location         *string
	Notes            *string
	Priority         *Priority
	Completed        *bool
}

// IsEmpty reports whether the patch changes nothing
func (p ActivityPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.StartTime == nil && p.EndTime == nil && !p.ClearEndTime && p.Recurrence == nil &&
		p.AssignedTo == nil && p.AssignedChildren == nil && p.Location == nil &&
		p.Notes == nil && p.Priority == nil && p.Completed == nil
}

// DaySchedule pairs a calendar day with the activities starting on it
type DaySchedule struct {
	Date       time.Time
	Activities []Activity
}
