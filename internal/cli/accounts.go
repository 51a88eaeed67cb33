package cli

import (
	"fmt"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/pkg/sdk"
	"github.com/spf13/cobra"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create a customer account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				user, err := c.Accounts().Register(cmd.Context(), accounts.Registration{
					Email:    args[0],
					Password: args[1],
					Name:     name,
				})
				if err != nil {
					return WrapExitError(ExitFailure, "register failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(user)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and keep the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				session, err := c.Accounts().Login(cmd.Context(), args[0], args[1])
				if err != nil {
					return WrapExitError(ExitFailure, "login failed", err)
				}
				p := newPrinter(rootOpts, cmd.OutOrStdout())
				if rootOpts.Format == "json" {
					return p.Data(session)
				}
				return p.Data(fmt.Sprintf("logged in as %s (%s)", session.User.Email, session.Source))
			})
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				c.Accounts().Logout()
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data("logged out")
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				user, ok := c.Accounts().CurrentUser()
				if !ok {
					return &ExitError{Code: ExitFailure, Message: "not logged in"}
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(user)
			})
		},
	}
}

// NewDeleteUserCommand creates the delete-user command.
func NewDeleteUserCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <email>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				if err := c.Accounts().DeleteUser(cmd.Context(), args[0]); err != nil {
					return WrapExitError(ExitFailure, "delete-user failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(fmt.Sprintf("user %s deleted", args[0]))
			})
		},
	}
}
