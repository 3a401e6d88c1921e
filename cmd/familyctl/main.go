// Command familyctl manages a household's members and activities from the
// terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"familyplanner/internal/config"
	"familyplanner/internal/service"
)

func main() {
	root := newRootCmd(os.Stdout, time.Now)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds the state shared by every command of one invocation
type cli struct {
	out         io.Writer
	now         func() time.Time
	cfg         *config.Config
	format      string
	showMetrics bool
}

func newRootCmd(out io.Writer, now func() time.Time) *cobra.Command {
	c := &cli{out: out, now: now}

	root := &cobra.Command{
		Use:   "familyctl",
		Short: "Plan and track a family's activities",
		Long: `familyctl keeps a household's members and activities in a SQL database.

The signed-in account comes from SESSION_TOKEN, verified with SESSION_SECRET.
Every view is filtered by what the active member is allowed to see.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.cfg = config.Load()
			if c.format == "" {
				c.format = c.cfg.OutputFormat
			}
			switch c.format {
			case formatTable, formatJSON, formatYAML:
				return nil
			}
			return fmt.Errorf("unknown output format %q", c.format)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.format, "output", "o", "", "Output format: table, json or yaml (default from OUTPUT_FORMAT)")
	root.PersistentFlags().BoolVar(&c.showMetrics, "metrics", false, "Print backend call metrics after the command")

	root.AddCommand(
		c.onboardCmd(),
		c.whoamiCmd(),
		c.switchCmd(),
		c.signoutCmd(),
		c.tokenCmd(),
		c.membersCmd(),
		c.activitiesCmd(),
		c.todayCmd(),
		c.tomorrowCmd(),
		c.upcomingCmd(),
		c.weekCmd(),
		c.monthCmd(),
		c.statsCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.backupsCmd(),
	)
	return root
}

// run opens the session around fn and closes it afterwards
func (c *cli) run(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx, c.cfg, c.now)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(ctx, a, args); err != nil {
			return err
		}
		if c.showMetrics {
			return c.printMetrics(a.registry)
		}
		return nil
	}
}

func (c *cli) printer() printer {
	return printer{w: c.out, format: c.format}
}

// requestError logs the full failure and returns the short user-facing message
func requestError(err error) error {
	log.Printf("Request failed: %v", err)
	return errors.New(service.ErrorMessage(err))
}
