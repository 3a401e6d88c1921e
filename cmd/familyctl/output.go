package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"familyplanner/internal/models"
	"familyplanner/internal/schedule"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const (
	dateLayout     = "2006-01-02"
	listTimeLayout = "Mon Jan 2 15:04"
)

type printer struct {
	w      io.Writer
	format string
}

// print writes data as JSON or YAML, or calls table with a tabwriter
func (p printer) print(data any, table func(w io.Writer)) error {
	switch p.format {
	case formatJSON:
		encoder := json.NewEncoder(p.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case formatYAML:
		encoder := yaml.NewEncoder(p.w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

type memberView struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role" yaml:"role"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Color  string `json:"color" yaml:"color"`
	Active bool   `json:"active" yaml:"active"`
}

func newMemberView(m models.Member, active *models.Member) memberView {
	return memberView{
		ID:     m.ID,
		Name:   m.Name,
		Role:   string(m.Role),
		Avatar: m.AvatarOr(""),
		Color:  m.Color,
		Active: active != nil && active.ID == m.ID,
	}
}

type activityView struct {
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
}

// newActivityView resolves assignee ids to names, dropping ids of removed members
func newActivityView(a models.Activity, members []models.Member, loc *time.Location) activityView {
	v := activityView{
		ID:               a.ID,
		Title:            a.Title,
		Category:         string(a.Category),
		StartTime:        a.StartTime.In(loc),
		Recurrence:       string(a.Recurrence),
		AssignedTo:       names(schedule.ResolveMembers(a.AssignedTo, members)),
		AssignedChildren: names(schedule.ResolveMembers(a.AssignedChildren, members)),
		Priority:         string(a.Priority),
		Completed:        a.Completed,
	}
	if a.Description != nil {
		v.Description = *a.Description
	}
	if a.EndTime != nil {
		end := a.EndTime.In(loc)
		v.EndTime = &end
	}
	if a.Location != nil {
		v.Location = *a.Location
	}
	if a.Notes != nil {
		v.Notes = *a.Notes
	}
	return v
}

func activityViews(activities []models.Activity, members []models.Member, loc *time.Location) []activityView {
	views := make([]activityView, 0, len(activities))
	for _, a := range activities {
		views = append(views, newActivityView(a, members, loc))
	}
	return views
}

func names(members []models.Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Name)
	}
	return out
}

func activityTable(w io.Writer, views []activityView) {
	fmt.Fprintln(w, "ID\tDONE\tWHEN\tTITLE\tCATEGORY\tPRIORITY\tWHO")
	for _, v := range views {
		when := v.StartTime.Format(listTimeLayout)
		if v.EndTime != nil {
			when += "-" + v.EndTime.Format("15:04")
		}
		who := append(append([]string{}, v.AssignedTo...), v.AssignedChildren...)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, check(v.Completed), when, v.Title, v.Category, v.Priority, strings.Join(who, ", "))
	}
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// printMetrics writes every gathered sample as a table
func (c *cli) printMetrics(registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tLABELS\tVALUE")
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)

			var value string
			switch {
			case m.GetCounter() != nil:
				value = fmt.Sprint(m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				value = fmt.Sprint(m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				value = fmt.Sprintf("count=%d sum=%.4fs", m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", family.GetName(), strings.Join(labels, ","), value)
		}
	}
	return tw.Flush()
}
