package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"gopkg.in/yaml.v3"

	"familyplanner/internal/models"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// Backup encodings
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// BackupData is a portable copy of one family
type BackupData struct {
	Version    string           `json:"version" yaml:"version"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Members    []MemberBackup   `json:"members" yaml:"members"`
	Activities []ActivityBackup `json:"activities" yaml:"activities"`
}

// MemberBackup represents a member record for backup
type MemberBackup struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role" yaml:"role"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Color  string `json:"color" yaml:"color"`
}

// ActivityBackup represents an activity record for backup
type ActivityBackup struct {
	ID               string     `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category         string     `json:"category" yaml:"category"`
	StartTime        time.Time  `json:"start_time" yaml:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Recurrence       string     `json:"recurrence" yaml:"recurrence"`
	AssignedTo       []string   `json:"assigned_to" yaml:"assigned_to"`
	AssignedChildren []string   `json:"assigned_children" yaml:"assigned_children"`
	Location         string     `json:"location,omitempty" yaml:"location,omitempty"`
	Notes            string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	Priority         string     `json:"priority" yaml:"priority"`
	Completed        bool       `json:"completed" yaml:"completed"`
	CreatedBy        string     `json:"created_by,omitempty" yaml:"created_by,omitempty"`
}

// Snapshot is anything that can list the family's entities
type Snapshot interface {
	Members() []models.Member
	Activities() []models.Activity
}

// ImportResult counts what an import created
type ImportResult struct {
	Members    int
	Activities int
	Dropped    int // assignee ids that matched no imported member
}

// Export copies the current snapshot into a backup document
func Export(src Snapshot, now time.Time) BackupData {
	backup := BackupData{
		Version:    BackupVersion,
		ExportedAt: now.UTC(),
		Members:    []MemberBackup{},
		Activities: []ActivityBackup{},
	}
	for _, m := range src.Members() {
		backup.Members = append(backup.Members, MemberBackup{
			ID:     m.ID,
			Name:   m.Name,
			Role:   string(m.Role),
			Avatar: deref(m.Avatar),
			Color:  m.Color,
		})
	}
	for _, a := range src.Activities() {
		backup.Activities = append(backup.Activities, ActivityBackup{
			ID:               a.ID,
			Title:            a.Title,
			Description:      deref(a.Description),
			Category:         string(a.Category),
			StartTime:        a.StartTime.UTC(),
			EndTime:          utcPtr(a.EndTime),
			Recurrence:       string(a.Recurrence),
			AssignedTo:       a.AssignedTo,
			AssignedChildren: a.AssignedChildren,
			Location:         deref(a.Location),
			Notes:            deref(a.Notes),
			Priority:         string(a.Priority),
			Completed:        a.Completed,
			CreatedBy:        a.CreatedBy,
		})
	}
	log.Printf("Exported: %d members, %d activities", len(backup.Members), len(backup.Activities))
	return backup
}

// Import recreates a backup in an empty family. Members are created first and
// their new ids replace the old ones in every activity; ids that match no
// member in the backup are dropped.
func (c *Coordinator) Import(ctx context.Context, backup BackupData) (ImportResult, error) {
	var result ImportResult
	if backup.Version != BackupVersion {
		return result, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	if len(c.store.Members()) > 0 {
		return result, ErrFamilyNotEmpty
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	ids := make(map[string]string, len(backup.Members))
	for _, mb := range backup.Members {
		draft := MemberDraft{Name: mb.Name, Role: models.Role(mb.Role), Avatar: mb.Avatar, Color: mb.Color}
		if err := draft.Validate(); err != nil {
			return result, fmt.Errorf("failed to import member %s: %w", mb.ID, err)
		}
		m, err := c.store.CreateMember(ctx, draft.member())
		if err != nil {
			return result, fmt.Errorf("failed to import members: %w", err)
		}
		ids[mb.ID] = m.ID
		result.Members++
	}

	remap := func(old []string) []string {
		out := make([]string, 0, len(old))
		for _, id := range old {
			if newID, ok := ids[id]; ok {
				out = append(out, newID)
				continue
			}
			result.Dropped++
		}
		return out
	}

	for _, ab := range backup.Activities {
		a := models.Activity{
			Title:            ab.Title,
			Description:      optional(ab.Description),
			Category:         models.Category(ab.Category),
			StartTime:        ab.StartTime,
			EndTime:          ab.EndTime,
			Recurrence:       models.Recurrence(ab.Recurrence),
			AssignedTo:       remap(ab.AssignedTo),
			AssignedChildren: remap(ab.AssignedChildren),
			Location:         optional(ab.Location),
			Notes:            optional(ab.Notes),
			Priority:         models.Priority(ab.Priority),
			Completed:        ab.Completed,
			CreatedBy:        ids[ab.CreatedBy],
		}
		if _, err := c.store.CreateActivity(ctx, a); err != nil {
			return result, fmt.Errorf("failed to import activities: %w", err)
		}
		result.Activities++
	}

	log.Printf("Imported: %d members, %d activities", result.Members, result.Activities)
	if c.identity != nil {
		if err := c.identity.Reset(ctx, c.store.Members()); err != nil {
			return result, err
		}
	}
	return result, nil
}

// EncodeBackup writes backup to w as JSON or YAML
func EncodeBackup(w io.Writer, backup BackupData, format string) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(backup); err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(backup); err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown backup format %q", format)
	}
	return nil
}

// DecodeBackup reads a backup written by EncodeBackup
func DecodeBackup(r io.Reader, format string) (BackupData, error) {
	var backup BackupData
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&backup)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&backup)
	default:
		return backup, fmt.Errorf("unknown backup format %q", format)
	}
	if err != nil {
		return backup, fmt.Errorf("failed to decode backup: %w", err)
	}
	return backup, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
