package schedule

import (
	"math"
	"strings"

	"familyplanner/internal/models"
)

// Criteria narrows an activity list the way the activities page does
type Criteria struct {
	Query         string          // case-insensitive match on title or description
	Category      models.Category // empty matches every category
	ShowCompleted bool
}

// Filter returns the activities matching c, in input order
func Filter(activities []models.Activity, c Criteria) []models.Activity {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	out := []models.Activity{}
	for _, a := range activities {
		if !c.ShowCompleted && a.Completed {
			continue
		}
		if c.Category != "" && a.Category != c.Category {
			continue
		}
		if query != "" && !matchesQuery(a, query) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesQuery(a models.Activity, query string) bool {
	if strings.Contains(strings.ToLower(a.Title), query) {
		return true
	}
	return a.Description != nil && strings.Contains(strings.ToLower(*a.Description), query)
}

// Counts summarises completion state
type Counts struct {
	Total     int
	Completed int
	Pending   int
}

// Tally counts completed and pending activities
func Tally(activities []models.Activity) Counts {
	c := Counts{Total: len(activities)}
	for _, a := range activities {
		if a.Completed {
			c.Completed++
		}
	}
	c.Pending = c.Total - c.Completed
	return c
}

// CompletionRate returns the completed share as a rounded percentage, 0 for an empty list
func (c Counts) CompletionRate() int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Completed) / float64(c.Total) * 100))
}

// ResolveMembers maps ids to members, silently dropping ids with no match
func ResolveMembers(ids []string, members []models.Member) []models.Member {
	byID := make(map[string]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	out := make([]models.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// MembersByRole returns the members holding role, in list order
func MembersByRole(members []models.Member, role models.Role) []models.Member {
	out := []models.Member{}
	for _, m := range members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}
