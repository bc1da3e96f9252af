package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoubaax/on-time/pkg/client"
)

// passwordFrom prefers the flag, then AUTHCTL_PASSWORD.
func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := os.Getenv("AUTHCTL_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("password required: use --password or AUTHCTL_PASSWORD")
}

func signUpCmd(opts *globalOptions) *cobra.Command {
	var email, password, fullName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an email account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			res, err := c.SignUp(cmd.Context(), email, pw, fullName)
			if err != nil {
				return err
			}
			if res.Tokens == nil {
				success("Account created. Check %s to confirm it, then sign in.", email)
				return nil
			}
			success("Signed up as %s (%s)", res.User.Email, res.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func signInCmd(opts *globalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			res, err := c.SignIn(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			success("Signed in as %s (%s)", res.User.Email, res.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func signOutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := c.SignOut(cmd.Context()); err != nil {
				warn("Server sign-out failed: %v", err)
			}
			success("Signed out")
			return nil
		},
	}
}

func googleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Print the Google sign-in URL",
		Long: `Print the Google sign-in URL. Open it in a browser, then pass the
provider access token from the redirect to "authctl callback".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			url, err := c.GoogleURL(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}
}

func callbackCmd(opts *globalOptions) *cobra.Command {
	var refreshToken string

	cmd := &cobra.Command{
		Use:   "callback <provider-access-token>",
		Short: "Complete an OAuth sign-in with the provider's access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			res, err := c.Callback(cmd.Context(), args[0], refreshToken)
			if err != nil {
				return err
			}
			success("Signed in as %s (%s)", res.User.Email, res.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "provider refresh token")

	return cmd
}

func profileCmd(opts *globalOptions) *cobra.Command {
	var fullName, avatarURL string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("avatar") {
				user, err := c.Profile(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(user)
			}

			var update client.ProfileUpdate
			if flags.Changed("name") {
				update.FullName = &fullName
			}
			if flags.Changed("avatar") {
				update.AvatarURL = &avatarURL
			}
			user, err := c.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "new full name")
	cmd.Flags().StringVar(&avatarURL, "avatar", "", "new avatar URL")

	return cmd
}

func statusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the locally stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			s := c.Session()
			fmt.Printf("  State: %s\n", s.State())
			if u := s.User(); u != nil {
				fmt.Printf("  User:  %s (%s)\n", u.Email, u.Role)
			}
			return nil
		},
	}
}
