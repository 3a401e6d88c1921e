package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"familyplanner/internal/models"
	"familyplanner/internal/schedule"
	"familyplanner/internal/service"
)

func (c *cli) membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member"},
		Short:   "List and manage family members",
	}
	cmd.AddCommand(c.membersListCmd(), c.membersAddCmd(), c.membersUpdateCmd(), c.membersRemoveCmd())
	return cmd
}

func (c *cli) printMembers(members []models.Member, active *models.Member) error {
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, newMemberView(m, active))
	}
	return c.printer().print(views, func(w io.Writer) {
		fmt.Fprintln(w, "\tID\tNAME\tROLE\tAVATAR\tCOLOR")
		for _, v := range views {
			marker := ""
			if v.Active {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, v.ID, v.Name, v.Role, v.Avatar, v.Color)
		}
	})
}

func (c *cli) membersListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members; the active member is marked with *",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, a *app, _ []string) error {
			members := a.store.Members()
			if role != "" {
				members = schedule.MembersByRole(members, models.Role(role))
			}
			return c.printMembers(members, a.resolver.Active())
		}),
	}
	cmd.Flags().StringVar(&role, "role", "", "Only members with this role")
	return cmd
}

func (c *cli) membersAddCmd() *cobra.Command {
	var draft service.MemberDraft
	var role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a family member",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			draft.Role = models.Role(role)
			_, perms := a.identity()
			m, err := a.coordinator.RequestAddMember(ctx, draft, perms)
			if err != nil {
				return requestError(err)
			}
			return c.printMembers([]models.Member{m}, a.resolver.Active())
		}),
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "Member name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleChild), "Role: parent, child or caregiver")
	cmd.Flags().StringVar(&draft.Avatar, "avatar", "", "Avatar glyph")
	cmd.Flags().StringVar(&draft.Color, "color", "", "Accent color (default by role)")
	return cmd
}

func (c *cli) membersUpdateCmd() *cobra.Command {
	var name, role, avatar, color string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a member's name, role, avatar or color",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&role, "role", "", "New role")
	cmd.Flags().StringVar(&avatar, "avatar", "", "New avatar; empty clears it")
	cmd.Flags().StringVar(&color, "color", "", "New accent color")
	cmd.RunE = c.run(func(ctx context.Context, a *app, args []string) error {
		var patch models.MemberPatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch.Name = &name
		}
		if flags.Changed("role") {
			r := models.Role(role)
			patch.Role = &r
		}
		if flags.Changed("avatar") {
			patch.Avatar = &avatar
		}
		if flags.Changed("color") {
			patch.Color = &color
		}

		_, perms := a.identity()
		m, err := a.coordinator.RequestUpdateMember(ctx, args[0], patch, perms)
		if err != nil {
			return requestError(err)
		}
		return c.printMembers([]models.Member{m}, a.resolver.Active())
	})
	return cmd
}

func (c *cli) membersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a member; their activities keep the assignment",
		Args:    cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			_, perms := a.identity()
			if err := a.coordinator.RequestRemoveMember(ctx, args[0], perms); err != nil {
				return requestError(err)
			}
			fmt.Fprintf(c.out, "Removed %s\n", args[0])
			return nil
		}),
	}
}
