package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"familyplanner/internal/models"
)

// Field limits enforced by the activity form
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxLocationLength    = 200
	MaxNotesLength       = 500
)

// TimeOfDayLayout is the "HH:MM" layout used by form time fields
const TimeOfDayLayout = "15:04"

// ValidationError represents a validation error on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects every field error found in one form
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual field errors to errors.As
func (e Errors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, fe := range e {
		errs = append(errs, fe)
	}
	return errs
}

// Add appends err when it is a ValidationError; nil is ignored
func (e *Errors) Add(err error) {
	if err == nil {
		return
	}
	var fe ValidationError
	if errors.As(err, &fe) {
		*e = append(*e, fe)
		return
	}
	*e = append(*e, ValidationError{Field: "form", Message: err.Error()})
}

// Err returns nil when no errors were collected
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsValidationError reports whether err came from form validation
func IsValidationError(err error) bool {
	var fe ValidationError
	return errors.As(err, &fe)
}

// ValidateName checks that a member name is present
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// ValidateRole checks that the role is one of the declared roles
func ValidateRole(role models.Role) error {
	if role == "" {
		return ValidationError{Field: "role", Message: "role is required"}
	}
	if !role.Valid() {
		return ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	return nil
}

// ValidateTitle checks the activity title
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ValidationError{Field: "title", Message: fmt.Sprintf("title must be less than %d characters", MaxTitleLength)}
	}
	return nil
}

// ValidateMaxLength checks an optional free-text field
func ValidateMaxLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be less than %d characters", field, limit)}
	}
	return nil
}

// ParseTimeOfDay parses an "HH:MM" string into hours and minutes
func ParseTimeOfDay(field, value string) (int, int, error) {
	t, err := time.Parse(TimeOfDayLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, 0, ValidationError{Field: field, Message: fmt.Sprintf("invalid time %q, expected HH:MM", value)}
	}
	return t.Hour(), t.Minute(), nil
}

// ValidateAssignees requires at least one owner
func ValidateAssignees(assignedTo []string) error {
	for _, id := range assignedTo {
		if strings.TrimSpace(id) != "" {
			return nil
		}
	}
	return ValidationError{Field: "assignedTo", Message: "assign to at least one person"}
}

// ValidateCategory checks the category enum
func ValidateCategory(c models.Category) error {
	if !c.Valid() {
		return ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", c)}
	}
	return nil
}

// ValidateRecurrence checks the recurrence enum
func ValidateRecurrence(r models.Recurrence) error {
	if !r.Valid() {
		return ValidationError{Field: "recurrence", Message: fmt.Sprintf("unknown recurrence %q", r)}
	}
	return nil
}

// ValidatePriority checks the priority enum
func ValidatePriority(p models.Priority) error {
	if !p.Valid() {
		return ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", p)}
	}
	return nil
}
