package cli

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/spf13/cobra"
)

// indirections used in tests
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) email(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return getSimpleText(a.reader, "Email", a.out)
}

func newRegisterCommand(app func() *App) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			addr, err := a.email(email)
			if err != nil {
				return err
			}

			password, err := getPassword(a.reader, "Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			confirm, err := getPassword(a.reader, "Repeat password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(confirm)

			if !bytes.Equal(password, confirm) {
				return errPasswordMismatch
			}

			s, err := a.authService.Register(cmd.Context(), addr, password, name)
			if err != nil {
				return err
			}
			printSession(a, "Registered", s.Email, s.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	return cmd
}

func newLoginCommand(app func() *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			addr, err := a.email(email)
			if err != nil {
				return err
			}

			password, err := getPassword(a.reader, "Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			s, err := a.authService.Login(cmd.Context(), addr, password)
			if err != nil {
				return err
			}
			printSession(a, "Logged in", s.Email, s.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.authService.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoAmICommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			id, err := a.authService.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "user:    %s\nemail:   %s\nexpires: %s\n",
				id.UserID, id.Email, id.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func newRefreshCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the saved token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			s, err := a.authService.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printSession(a, "Refreshed", s.Email, s.ExpiresAt)
			return nil
		},
	}
}

func newAPITokenCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "api-token",
		Short: "Issue a new API token, replacing the previous one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			token, err := a.authService.IssueAPIToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
}
