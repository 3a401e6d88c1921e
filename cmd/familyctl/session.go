package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
	"familyplanner/internal/service"
	"familyplanner/internal/session"
)

func (c *cli) onboardCmd() *cobra.Command {
	var entries []string
	cmd := &cobra.Command{
		Use:     "onboard",
		Short:   "Create the first members of a new family",
		Example: `  familyctl onboard --member "Alex:parent:👩" --member "Sam:child"`,
	}
	cmd.Flags().StringArrayVarP(&entries, "member", "m", nil, "Member as name:role[:avatar]; repeat for each member")
	cmd.RunE = c.run(func(ctx context.Context, a *app, _ []string) error {
		drafts := make([]service.MemberDraft, 0, len(entries))
		for _, entry := range entries {
			draft, err := parseDraft(entry)
			if err != nil {
				return err
			}
			drafts = append(drafts, draft)
		}

		created, err := a.coordinator.Onboard(ctx, drafts)
		if err != nil {
			return requestError(err)
		}
		return c.printMembers(created, a.resolver.Active())
	})
	return cmd
}

// parseDraft reads "name:role[:avatar]"
func parseDraft(entry string) (service.MemberDraft, error) {
	parts := strings.SplitN(entry, ":", 3)
	if len(parts) < 2 {
		return service.MemberDraft{}, fmt.Errorf("member %q must look like name:role[:avatar]", entry)
	}
	draft := service.MemberDraft{
		Name: strings.TrimSpace(parts[0]),
		Role: models.Role(strings.ToLower(strings.TrimSpace(parts[1]))),
	}
	if len(parts) == 3 {
		draft.Avatar = parts[2]
	}
	return draft, nil
}

type whoamiView struct {
	AccountID   string          `json:"account_id" yaml:"account_id"`
	Email       string          `json:"email,omitempty" yaml:"email,omitempty"`
	State       string          `json:"state" yaml:"state"`
	Member      *memberView     `json:"member,omitempty" yaml:"member,omitempty"`
	Permissions permissions.Set `json:"permissions" yaml:"permissions"`
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and the active member",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			active, perms := a.identity()
			view := whoamiView{
				AccountID:   a.account.ID,
				Email:       a.account.Email,
				State:       a.resolver.State().String(),
				Permissions: perms,
			}
			if active != nil {
				mv := newMemberView(*active, active)
				view.Member = &mv
			}
			return c.printer().print(view, func(w io.Writer) {
				fmt.Fprintf(w, "Account:\t%s %s\n", view.AccountID, view.Email)
				if view.Member == nil {
					fmt.Fprintln(w, "Member:\tnone (run onboard)")
					return
				}
				fmt.Fprintf(w, "Member:\t%s %s (%s)\n", view.Member.Avatar, view.Member.Name, view.Member.Role)
				fmt.Fprintf(w, "Can edit:\t%t\n", perms.EditActivity)
				fmt.Fprintf(w, "Sees all:\t%t\n", perms.ViewAllActivities)
				fmt.Fprintf(w, "Manages members:\t%t\n", perms.ManageMembers)
			})
		}),
	}
}

func (c *cli) switchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <member>",
		Short: "Act as another family member, by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			m, ok := findMember(a.store.Members(), args[0])
			if !ok {
				return fmt.Errorf("no member matches %q", args[0])
			}
			if err := a.resolver.SetActive(ctx, m); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Now acting as %s\n", m.Name)
			return nil
		}),
	}
}

// findMember matches an id exactly, then a name case-insensitively
func findMember(members []models.Member, ref string) (models.Member, bool) {
	for _, m := range members {
		if m.ID == ref {
			return m, true
		}
	}
	for _, m := range members {
		if strings.EqualFold(m.Name, ref) {
			return m, true
		}
	}
	return models.Member{}, false
}

func (c *cli) signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the active member and end the session",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			if err := a.resolver.Forget(ctx); err != nil {
				return err
			}
			if err := a.session.SignOut(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out. Unset SESSION_TOKEN to stay signed out.")
			return nil
		}),
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		account session.Account
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an account using SESSION_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := session.IssueToken(c.cfg.SessionSecret, account, c.now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&account.ID, "account", "", "Account id (token subject)")
	cmd.Flags().StringVar(&account.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&account.Name, "name", "", "Account display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime; 0 never expires")
	cmd.MarkFlagRequired("account")
	return cmd
}
