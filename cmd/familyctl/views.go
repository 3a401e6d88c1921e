package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"familyplanner/internal/models"
	"familyplanner/internal/schedule"
)

func (c *cli) todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Activities starting today",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			return c.printActivities(a, schedule.On(a.visible(), a.today()))
		}),
	}
}

type cappedView struct {
	Activities []activityView `json:"activities" yaml:"activities"`
	More       int            `json:"more" yaml:"more"`
}

func (c *cli) printCapped(a *app, capped schedule.Capped) error {
	view := cappedView{
		Activities: activityViews(capped.Shown, a.store.Members(), a.loc),
		More:       capped.Overflow,
	}
	return c.printer().print(view, func(w io.Writer) {
		activityTable(w, view.Activities)
		if view.More > 0 {
			fmt.Fprintf(w, "+%d more\n", view.More)
		}
	})
}

func (c *cli) tomorrowCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "tomorrow",
		Short: "Activities starting tomorrow, as shown on the dashboard",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			activities := schedule.Tomorrow(a.visible(), a.today())
			if all {
				return c.printActivities(a, activities)
			}
			return c.printCapped(a, schedule.Cap(activities, schedule.ListCap))
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "Show every activity instead of the first few")
	return cmd
}

func (c *cli) upcomingCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Activities starting after now",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			activities := schedule.StrictlyAfter(a.visible(), a.now())
			if limit > 0 {
				return c.printCapped(a, schedule.Cap(activities, limit))
			}
			return c.printActivities(a, activities)
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many; 0 for all")
	return cmd
}

// dateFlag resolves an optional YYYY-MM-DD flag to a day in loc, defaulting to today
func dateFlag(value string, a *app) (time.Time, error) {
	if value == "" {
		return a.today(), nil
	}
	date, err := time.ParseInLocation(dateLayout, value, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: use YYYY-MM-DD", value)
	}
	return date, nil
}

type dayView struct {
	Date       string         `json:"date" yaml:"date"`
	InMonth    bool           `json:"in_month" yaml:"in_month"`
	Activities []activityView `json:"activities" yaml:"activities"`
}

func titles(activities []models.Activity, limit int) string {
	capped := schedule.Cap(activities, limit)
	out := make([]string, 0, len(capped.Shown)+1)
	for _, a := range capped.Shown {
		out = append(out, check(a.Completed)+" "+a.Title)
	}
	if capped.Overflow > 0 {
		out = append(out, fmt.Sprintf("+%d more", capped.Overflow))
	}
	return strings.Join(out, "; ")
}

func (c *cli) weekCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "The Sunday-to-Saturday week containing a date",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			day, err := dateFlag(date, a)
			if err != nil {
				return err
			}
			week := schedule.WeekSchedule(a.visible(), day)
			members := a.store.Members()

			views := make([]dayView, 0, len(week))
			for _, d := range week {
				views = append(views, dayView{
					Date:       d.Date.Format(dateLayout),
					InMonth:    true,
					Activities: activityViews(d.Activities, members, a.loc),
				})
			}
			return c.printer().print(views, func(w io.Writer) {
				fmt.Fprintln(w, "DAY\tDATE\tACTIVITIES")
				for _, d := range week {
					marker := ""
					if schedule.SameDay(d.Date, a.today()) {
						marker = " (today)"
					}
					fmt.Fprintf(w, "%s%s\t%s\t%s\n", d.Date.Format("Mon"), marker, d.Date.Format(dateLayout),
						titles(d.Activities, schedule.WeekCellCap))
				}
			})
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "Any day of the week as YYYY-MM-DD (default today)")
	return cmd
}

func (c *cli) monthCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "month",
		Short: "The six-week calendar grid of a month",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			day, err := dateFlag(date, a)
			if err != nil {
				return err
			}
			grid := schedule.MonthSchedule(a.visible(), day)
			members := a.store.Members()

			views := make([]dayView, 0, len(grid))
			for _, cell := range grid {
				views = append(views, dayView{
					Date:       cell.Date.Format(dateLayout),
					InMonth:    cell.InMonth,
					Activities: activityViews(cell.Activities, members, a.loc),
				})
			}
			return c.printer().print(views, func(w io.Writer) {
				fmt.Fprintf(w, "%s\n", day.Format("January 2006"))
				fmt.Fprintln(w, "SUN\tMON\tTUE\tWED\tTHU\tFRI\tSAT")
				for i, cell := range grid {
					label := fmt.Sprintf("%2d", cell.Date.Day())
					if !cell.InMonth {
						label = " ."
					} else if n := len(cell.Activities); n > 0 {
						label += fmt.Sprintf("(%d)", n)
					}
					sep := "\t"
					if i%schedule.DaysPerWeek == schedule.DaysPerWeek-1 {
						sep = "\n"
					}
					fmt.Fprint(w, label+sep)
				}
			})
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "Any day of the month as YYYY-MM-DD (default today)")
	return cmd
}

type statsView struct {
	Total          int           `json:"total" yaml:"total"`
	Completed      int           `json:"completed" yaml:"completed"`
	Pending        int           `json:"pending" yaml:"pending"`
	CompletionRate int           `json:"completion_rate" yaml:"completion_rate"`
	Today          int           `json:"today" yaml:"today"`
	Members        []memberStats `json:"members" yaml:"members"`
}

type memberStats struct {
	Name      string `json:"name" yaml:"name"`
	Total     int    `json:"total" yaml:"total"`
	Completed int    `json:"completed" yaml:"completed"`
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Completion counts overall and per member",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			visible := a.visible()
			counts := schedule.Tally(visible)
			view := statsView{
				Total:          counts.Total,
				Completed:      counts.Completed,
				Pending:        counts.Pending,
				CompletionRate: counts.CompletionRate(),
				Today:          len(schedule.On(visible, a.today())),
				Members:        []memberStats{},
			}
			for _, m := range a.store.Members() {
				mc := schedule.Tally(schedule.ForMember(visible, m.ID))
				view.Members = append(view.Members, memberStats{Name: m.Name, Total: mc.Total, Completed: mc.Completed})
			}
			return c.printer().print(view, func(w io.Writer) {
				fmt.Fprintf(w, "Total:\t%d\n", view.Total)
				fmt.Fprintf(w, "Completed:\t%d (%d%%)\n", view.Completed, view.CompletionRate)
				fmt.Fprintf(w, "Pending:\t%d\n", view.Pending)
				fmt.Fprintf(w, "Today:\t%d\n", view.Today)
				for _, ms := range view.Members {
					fmt.Fprintf(w, "  %s:\t%d/%d done\n", ms.Name, ms.Completed, ms.Total)
				}
			})
		}),
	}
}
