package service

import (
	"strings"
	"time"

	"familyplanner/internal/models"
	"familyplanner/internal/validation"
)

// Default values of a blank activity form
const (
	DefaultFormStartTime  = "09:00"
	DefaultFormCategory   = models.CategoryHome
	DefaultFormRecurrence = models.RecurrenceOnce
	DefaultFormPriority   = models.PriorityMedium
)

// ActivityForm is the user-facing shape of an activity: a calendar date plus
// "HH:MM" start and end times interpreted in the date's location
type ActivityForm struct {
	Title            string
	Description      string
	Category         models.Category
	Date             time.Time
	StartTime        string
	EndTime          string // empty means no end time
	Recurrence       models.Recurrence
	AssignedTo       []string
	AssignedChildren []string
	Location         string
	Priority         models.Priority
	Notes            string
}

// NewActivityForm returns a blank form dated on the day of now
func NewActivityForm(now time.Time) ActivityForm {
	return ActivityForm{
		Category:         DefaultFormCategory,
		Date:             now,
		StartTime:        DefaultFormStartTime,
		Recurrence:       DefaultFormRecurrence,
		AssignedTo:       []string{},
		AssignedChildren: []string{},
		Priority:         DefaultFormPriority,
	}
}

// FormFromActivity pre-fills a form for editing a, using loc for the date
// and times
func FormFromActivity(a models.Activity, loc *time.Location) ActivityForm {
	start := a.StartTime.In(loc)
	f := ActivityForm{
		Title:            a.Title,
		Description:      deref(a.Description),
		Category:         a.Category,
		Date:             start,
		StartTime:        start.Format(validation.TimeOfDayLayout),
		Recurrence:       a.Recurrence,
		AssignedTo:       append([]string{}, a.AssignedTo...),
		AssignedChildren: append([]string{}, a.AssignedChildren...),
		Location:         deref(a.Location),
		Priority:         a.Priority,
		Notes:            deref(a.Notes),
	}
	if a.EndTime != nil {
		f.EndTime = a.EndTime.In(loc).Format(validation.TimeOfDayLayout)
	}
	return f
}

// Validate checks every field and returns all problems at once as
// validation.Errors
func (f ActivityForm) Validate() error {
	var errs validation.Errors
	errs.Add(validation.ValidateTitle(f.Title))
	errs.Add(validation.ValidateMaxLength("description", f.Description, validation.MaxDescriptionLength))
	errs.Add(validation.ValidateCategory(f.Category))
	if f.Date.IsZero() {
		errs.Add(validation.ValidationError{Field: "date", Message: "date is required"})
	}
	if strings.TrimSpace(f.StartTime) == "" {
		errs.Add(validation.ValidationError{Field: "startTime", Message: "start time is required"})
	} else if _, _, err := validation.ParseTimeOfDay("startTime", f.StartTime); err != nil {
		errs.Add(err)
	}
	if strings.TrimSpace(f.EndTime) != "" {
		if _, _, err := validation.ParseTimeOfDay("endTime", f.EndTime); err != nil {
			errs.Add(err)
		}
	}
	errs.Add(validation.ValidateRecurrence(f.Recurrence))
	errs.Add(validation.ValidateAssignees(f.AssignedTo))
	errs.Add(validation.ValidateMaxLength("location", f.Location, validation.MaxLocationLength))
	errs.Add(validation.ValidatePriority(f.Priority))
	errs.Add(validation.ValidateMaxLength("notes", f.Notes, validation.MaxNotesLength))
	return errs.Err()
}

// Times combines the form date with its start and end times. End is nil when
// no end time was given. The form must already be valid.
func (f ActivityForm) Times() (start time.Time, end *time.Time, err error) {
	h, m, err := validation.ParseTimeOfDay("startTime", f.StartTime)
	if err != nil {
		return time.Time{}, nil, err
	}
	start = atTime(f.Date, h, m)

	if strings.TrimSpace(f.EndTime) == "" {
		return start, nil, nil
	}
	h, m, err = validation.ParseTimeOfDay("endTime", f.EndTime)
	if err != nil {
		return time.Time{}, nil, err
	}
	e := atTime(f.Date, h, m)
	return start, &e, nil
}

// activity builds a new activity from a validated form
func (f ActivityForm) activity(createdBy string) (models.Activity, error) {
	start, end, err := f.Times()
	if err != nil {
		return models.Activity{}, err
	}
	return models.Activity{
		Title:            strings.TrimSpace(f.Title),
		Description:      optional(f.Description),
		Category:         f.Category,
		StartTime:        start,
		EndTime:          end,
		Recurrence:       f.Recurrence,
		AssignedTo:       nonEmptyIDs(f.AssignedTo),
		AssignedChildren: nonEmptyIDs(f.AssignedChildren),
		Location:         optional(f.Location),
		Notes:            optional(f.Notes),
		Priority:         f.Priority,
		CreatedBy:        createdBy,
	}, nil
}

// patch builds an update carrying every form field. Cleared optional fields
// are sent as empty so the stored value is removed.
func (f ActivityForm) patch() (models.ActivityPatch, error) {
	start, end, err := f.Times()
	if err != nil {
		return models.ActivityPatch{}, err
	}
	title := strings.TrimSpace(f.Title)
	description := strings.TrimSpace(f.Description)
	location := strings.TrimSpace(f.Location)
	notes := strings.TrimSpace(f.Notes)
	category, recurrence, priority := f.Category, f.Recurrence, f.Priority
	return models.ActivityPatch{
		Title:            &title,
		Description:      &description,
		Category:         &category,
		StartTime:        &start,
		EndTime:          end,
		ClearEndTime:     end == nil,
		Recurrence:       &recurrence,
		AssignedTo:       nonEmptyIDs(f.AssignedTo),
		AssignedChildren: nonEmptyIDs(f.AssignedChildren),
		Location:         &location,
		Notes:            &notes,
		Priority:         &priority,
	}, nil
}

func atTime(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmptyIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
