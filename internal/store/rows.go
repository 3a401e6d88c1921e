package store

import (
	"fmt"
	"time"

	"familyplanner/internal/models"
)

// TimestampLayout is the ISO-8601 form used for instants at the backend boundary
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Defaults applied when a row omits an enum column
const (
	DefaultRole       = models.RoleParent
	DefaultCategory   = models.CategoryPersonal
	DefaultRecurrence = models.RecurrenceOnce
	DefaultPriority   = models.PriorityMedium
)

// FormatTimestamp renders t in UTC with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 instant, with or without fractional seconds
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func memberRow(m models.Member) Row {
	role := m.Role
	if role == "" {
		role = DefaultRole
	}
	return Row{
		"name":   m.Name,
		"role":   string(role),
		"avatar": optional(m.Avatar),
		"color":  m.Color,
	}
}

func memberPatchRow(p models.MemberPatch) Row {
	fields := Row{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Role != nil {
		fields["role"] = string(*p.Role)
	}
	if p.Avatar != nil {
		fields["avatar"] = optional(p.Avatar)
	}
	if p.Color != nil {
		fields["color"] = *p.Color
	}
	return fields
}

func memberFromRow(row Row) (models.Member, error) {
	id, err := requiredString(row, "id")
	if err != nil {
		return models.Member{}, err
	}
	name, err := requiredString(row, "name")
	if err != nil {
		return models.Member{}, err
	}
	role := models.Role(stringValue(row, "role"))
	if role == "" {
		role = DefaultRole
	}
	return models.Member{
		ID:     id,
		Name:   name,
		Role:   role,
		Avatar: optionalString(row, "avatar"),
		Color:  stringValue(row, "color"),
	}, nil
}

func activityRow(a models.Activity) Row {
	row := Row{
		"title":             a.Title,
		"description":       optional(a.Description),
		"category":          string(orDefault(a.Category, DefaultCategory)),
		"start_time":        FormatTimestamp(a.StartTime),
		"end_time":          nil,
		"recurrence":        string(orDefault(a.Recurrence, DefaultRecurrence)),
		"assigned_to":       nonNil(a.AssignedTo),
		"assigned_children": nonNil(a.AssignedChildren),
		"location":          optional(a.Location),
		"notes":             optional(a.Notes),
		"priority":          string(orDefault(a.Priority, DefaultPriority)),
		"completed":         a.Completed,
		"created_by":        nil,
	}
	if a.EndTime != nil {
		row["end_time"] = FormatTimestamp(*a.EndTime)
	}
	if a.CreatedBy != "" {
		row["created_by"] = a.CreatedBy
	}
	return row
}

func activityPatchRow(p models.ActivityPatch) Row {
	fields := Row{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = optional(p.Description)
	}
	if p.Category != nil {
		fields["category"] = string(*p.Category)
	}
	if p.StartTime != nil {
		fields["start_time"] = FormatTimestamp(*p.StartTime)
	}
	if p.EndTime != nil {
		fields["end_time"] = FormatTimestamp(*p.EndTime)
	} else if p.ClearEndTime {
		fields["end_time"] = nil
	}
	if p.Recurrence != nil {
		fields["recurrence"] = string(*p.Recurrence)
	}
	if p.AssignedTo != nil {
		fields["assigned_to"] = p.AssignedTo
	}
	if p.AssignedChildren != nil {
		fields["assigned_children"] = p.AssignedChildren
	}
	if p.Location != nil {
		fields["location"] = optional(p.Location)
	}
	if p.Notes != nil {
		fields["notes"] = optional(p.Notes)
	}
	if p.Priority != nil {
		fields["priority"] = string(*p.Priority)
	}
	if p.Completed != nil {
		fields["completed"] = *p.Completed
	}
	return fields
}

func activityFromRow(row Row) (models.Activity, error) {
	id, err := requiredString(row, "id")
	if err != nil {
		return models.Activity{}, err
	}
	title, err := requiredString(row, "title")
	if err != nil {
		return models.Activity{}, err
	}
	startRaw, err := requiredString(row, "start_time")
	if err != nil {
		return models.Activity{}, err
	}
	start, err := ParseTimestamp(startRaw)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to parse start_time of activity %s: %w", id, err)
	}

	a := models.Activity{
		ID:               id,
		Title:            title,
		Description:      optionalString(row, "description"),
		Category:         orDefault(models.Category(stringValue(row, "category")), DefaultCategory),
		StartTime:        start,
		Recurrence:       orDefault(models.Recurrence(stringValue(row, "recurrence")), DefaultRecurrence),
		AssignedTo:       stringsValue(row, "assigned_to"),
		AssignedChildren: stringsValue(row, "assigned_children"),
		Location:         optionalString(row, "location"),
		Notes:            optionalString(row, "notes"),
		Priority:         orDefault(models.Priority(stringValue(row, "priority")), DefaultPriority),
		Completed:        boolValue(row, "completed"),
		CreatedBy:        stringValue(row, "created_by"),
	}
	if endRaw := optionalString(row, "end_time"); endRaw != nil {
		end, err := ParseTimestamp(*endRaw)
		if err != nil {
			return models.Activity{}, fmt.Errorf("failed to parse end_time of activity %s: %w", id, err)
		}
		a.EndTime = &end
	}
	return a, nil
}

// optional maps an absent or empty optional string to nil
func optional(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func requiredString(row Row, key string) (string, error) {
	s := stringValue(row, key)
	if s == "" {
		return "", fmt.Errorf("row is missing %q", key)
	}
	return s, nil
}

func stringValue(row Row, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	case []byte:
		return string(v)
	case time.Time:
		return FormatTimestamp(v)
	}
	return ""
}

func optionalString(row Row, key string) *string {
	s := stringValue(row, key)
	if s == "" {
		return nil
	}
	return &s
}

func stringsValue(row Row, key string) []string {
	switch v := row[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func boolValue(row Row, key string) bool {
	switch v := row[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}
