package main

import (
	"github.com/spf13/cobra"
)

func usersCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users (admin only)",
	}

	cmd.AddCommand(
		usersListCmd(opts),
		usersGetCmd(opts),
		usersRoleCmd(opts),
		usersDeleteCmd(opts),
	)

	return cmd
}

func usersListCmd(opts *globalOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			users, err := c.ListUsers(cmd.Context(), role)
			if err != nil {
				return err
			}
			return printJSON(users)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "filter by role (admin|user)")

	return cmd
}

func usersGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			user, err := c.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
}

func usersRoleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "role <id> <admin|user>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			user, err := c.UpdateRole(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			success("%s is now %s", user.Email, user.Role)
			return nil
		},
	}
}

func usersDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := c.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			success("User %s deleted", args[0])
			return nil
		},
	}
}
