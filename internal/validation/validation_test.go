package validation

import (
	"errors"
	"strings"
	"testing"

	"familyplanner/internal/models"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{
			name:    "valid title",
			title:   "Soccer practice",
			wantErr: false,
		},
		{
			name:    "exactly the limit",
			title:   strings.Repeat("a", MaxTitleLength),
			wantErr: false,
		},
		{
			name:    "over the limit",
			title:   strings.Repeat("a", MaxTitleLength+1),
			wantErr: true,
		},
		{
			name:    "empty string",
			title:   "",
			wantErr: true,
		},
		{
			name:    "only spaces",
			title:   "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Sam"); err != nil {
		t.Errorf("ValidateName(Sam) = %v", err)
	}
	if err := ValidateName(" "); err == nil {
		t.Error("ValidateName should reject a blank name")
	}
}

func TestValidateRole(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		wantErr bool
	}{
		{name: "parent", role: models.RoleParent, wantErr: false},
		{name: "caregiver", role: models.RoleCaregiver, wantErr: false},
		{name: "empty", role: "", wantErr: true},
		{name: "unknown", role: "admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRole(tt.role)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRole(%q) error = %v, wantErr %v", tt.role, err, tt.wantErr)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{name: "morning", value: "09:00", wantHour: 9, wantMin: 0},
		{name: "evening", value: "18:45", wantHour: 18, wantMin: 45},
		{name: "surrounding spaces", value: " 07:30 ", wantHour: 7, wantMin: 30},
		{name: "out of range", value: "25:00", wantErr: true},
		{name: "not a time", value: "soon", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m, err := ParseTimeOfDay("startTime", tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if h != tt.wantHour || m != tt.wantMin {
				t.Errorf("ParseTimeOfDay(%q) = %02d:%02d, want %02d:%02d", tt.value, h, m, tt.wantHour, tt.wantMin)
			}
		})
	}
}

func TestValidateAssignees(t *testing.T) {
	if err := ValidateAssignees([]string{"p1"}); err != nil {
		t.Errorf("ValidateAssignees([p1]) = %v", err)
	}
	if err := ValidateAssignees(nil); err == nil {
		t.Error("ValidateAssignees(nil) should fail")
	}
	if err := ValidateAssignees([]string{""}); err == nil {
		t.Error("ValidateAssignees([\"\"]) should fail")
	}
}

func TestErrorsCollectsFieldErrors(t *testing.T) {
	var errs Errors
	errs.Add(nil)
	errs.Add(ValidateTitle(""))
	errs.Add(ValidateMaxLength("notes", strings.Repeat("n", MaxNotesLength+1), MaxNotesLength))

	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}

	err := errs.Err()
	if err == nil {
		t.Fatal("Err() should not be nil")
	}
	if !IsValidationError(err) {
		t.Errorf("IsValidationError(%v) = false", err)
	}

	var fe ValidationError
	if !errors.As(err, &fe) || fe.Field != "title" {
		t.Errorf("errors.As should find the title error, got %+v", fe)
	}

	if (Errors{}).Err() != nil {
		t.Error("empty Errors should report nil")
	}
}

func TestIsValidationErrorRejectsOtherErrors(t *testing.T) {
	if IsValidationError(errors.New("network down")) {
		t.Error("plain errors are not validation errors")
	}
}
