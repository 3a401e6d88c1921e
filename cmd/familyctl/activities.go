package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"familyplanner/internal/models"
	"familyplanner/internal/schedule"
	"familyplanner/internal/service"
)

func (c *cli) activitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity", "act"},
		Short:   "List and manage activities",
	}
	cmd.AddCommand(
		c.activitiesListCmd(),
		c.activitiesAddCmd(),
		c.activitiesEditCmd(),
		c.activitiesToggleCmd(),
		c.activitiesDeleteCmd(),
	)
	return cmd
}

func (c *cli) printActivities(a *app, activities []models.Activity) error {
	views := activityViews(activities, a.store.Members(), a.loc)
	return c.printer().print(views, func(w io.Writer) {
		activityTable(w, views)
	})
}

func (c *cli) activitiesListCmd() *cobra.Command {
	var (
		criteria schedule.Criteria
		category string
		member   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible activities in start time order",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			activities := a.visible()
			if member != "" {
				m, ok := findMember(a.store.Members(), member)
				if !ok {
					return fmt.Errorf("no member matches %q", member)
				}
				activities = schedule.ForMember(activities, m.ID)
			}
			criteria.Category = models.Category(category)
			return c.printActivities(a, schedule.Filter(activities, criteria))
		}),
	}
	cmd.Flags().StringVarP(&criteria.Query, "search", "s", "", "Match title or description")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().BoolVar(&criteria.ShowCompleted, "completed", true, "Include completed activities")
	cmd.Flags().StringVar(&member, "member", "", "Only activities assigned to this member (id or name)")
	return cmd
}

// formFlags binds the activity form fields to command flags
type formFlags struct {
	title, description, category, date string
	start, end, recurrence             string
	assignedTo, children               []string
	location, priority, notes          string
}

func (f *formFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "Title")
	flags.StringVar(&f.description, "description", "", "Description")
	flags.StringVar(&f.category, "category", string(service.DefaultFormCategory), "Category: school, sports, health, home or personal")
	flags.StringVar(&f.date, "date", "", "Date as YYYY-MM-DD (default today)")
	flags.StringVar(&f.start, "start", service.DefaultFormStartTime, "Start time as HH:MM")
	flags.StringVar(&f.end, "end", "", "End time as HH:MM; empty for none")
	flags.StringVar(&f.recurrence, "recurrence", string(service.DefaultFormRecurrence), "Recurrence: once, daily, weekly or monthly")
	flags.StringSliceVar(&f.assignedTo, "assign", nil, "Member ids responsible for the activity")
	flags.StringSliceVar(&f.children, "children", nil, "Member ids the activity is for")
	flags.StringVar(&f.location, "location", "", "Location")
	flags.StringVar(&f.priority, "priority", string(service.DefaultFormPriority), "Priority: low, medium or high")
	flags.StringVar(&f.notes, "notes", "", "Notes")
}

// apply copies the flags that were set onto form
func (f *formFlags) apply(flags *pflag.FlagSet, form *service.ActivityForm, loc *time.Location) error {
	if flags.Changed("date") {
		date, err := time.ParseInLocation(dateLayout, f.date, loc)
		if err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", f.date)
		}
		form.Date = date
	}
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("title", &form.Title, f.title)
	set("description", &form.Description, f.description)
	set("start", &form.StartTime, f.start)
	set("end", &form.EndTime, f.end)
	set("location", &form.Location, f.location)
	set("notes", &form.Notes, f.notes)
	if flags.Changed("category") {
		form.Category = models.Category(f.category)
	}
	if flags.Changed("recurrence") {
		form.Recurrence = models.Recurrence(f.recurrence)
	}
	if flags.Changed("priority") {
		form.Priority = models.Priority(f.priority)
	}
	if flags.Changed("assign") {
		form.AssignedTo = f.assignedTo
	}
	if flags.Changed("children") {
		form.AssignedChildren = f.children
	}
	return nil
}

func (c *cli) activitiesAddCmd() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an activity",
		Args:  cobra.NoArgs,
	}
	ff.register(cmd.Flags())
	cmd.RunE = c.run(func(ctx context.Context, a *app, _ []string) error {
		form := service.NewActivityForm(a.today())
		if err := ff.apply(cmd.Flags(), &form, a.loc); err != nil {
			return err
		}
		active, perms := a.identity()
		created, err := a.coordinator.RequestCreate(ctx, form, active, perms)
		if err != nil {
			return requestError(err)
		}
		return c.printActivities(a, []models.Activity{created})
	})
	return cmd
}

func (c *cli) activitiesEditCmd() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an activity; unset flags keep their current values",
		Args:  cobra.ExactArgs(1),
	}
	ff.register(cmd.Flags())
	cmd.RunE = c.run(func(ctx context.Context, a *app, args []string) error {
		existing, ok := a.store.Activity(args[0])
		if !ok {
			return fmt.Errorf("no activity with id %s", args[0])
		}
		form := service.FormFromActivity(existing, a.loc)
		if err := ff.apply(cmd.Flags(), &form, a.loc); err != nil {
			return err
		}
		active, perms := a.identity()
		updated, err := a.coordinator.RequestEdit(ctx, args[0], form, active, perms)
		if err != nil {
			return requestError(err)
		}
		return c.printActivities(a, []models.Activity{updated})
	})
	return cmd
}

func (c *cli) activitiesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark an activity done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			active, perms := a.identity()
			toggled, err := a.coordinator.RequestToggle(ctx, args[0], active, perms)
			if err != nil {
				return requestError(err)
			}
			if toggled == nil {
				return fmt.Errorf("no activity with id %s", args[0])
			}
			return c.printActivities(a, []models.Activity{*toggled})
		}),
	}
}

func (c *cli) activitiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an activity",
		Args:    cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			_, perms := a.identity()
			if err := a.coordinator.RequestDelete(ctx, args[0], perms); err != nil {
				return requestError(err)
			}
			fmt.Fprintf(c.out, "Deleted %s\n", args[0])
			return nil
		}),
	}
}
