package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/ecoshop/internal/app"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/validation"
)

var (
	loginUsername string
	loginPassword string

	account = map[validation.AccountField]*string{}

	currentPassword string
	newPassword     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and merge your guest cart into your account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			var err error
			password, err = readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
			if err != nil {
				return err
			}
		}
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			page := pages.NewLogin(svc.Deps)
			page.Form.UpdateFields(map[validation.LoginField]string{
				validation.LoginUsername: loginUsername,
				validation.LoginPassword: password,
			})
			_, err := page.Submit(ctx)
			return submitError(err, func() error { return formErrors(page.Form) })
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the local cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			pages.Logout(ctx, svc.Deps)
			return nil
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			page := pages.NewRegister(svc.Deps)
			values := make(map[validation.AccountField]string, len(account))
			for field, value := range account {
				values[field] = *value
			}
			page.Form.UpdateFields(values)
			_, err := page.Submit(ctx)
			return submitError(err, func() error { return formErrors(page.Form) })
		})
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			page := pages.NewChangePassword(svc.Deps)
			page.Form.UpdateFields(map[validation.PasswordField]string{
				validation.PasswordCurrent: currentPassword,
				validation.PasswordNew:     newPassword,
			})
			return submitError(page.Submit(ctx), func() error { return formErrors(page.Form) })
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			svc.Session.CheckAuth(ctx)
			user, ok := svc.Session.User()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			return writeOutput(cmd.OutOrStdout(), outputFormat, user, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Name\t%s\n", user.DisplayName())
				fmt.Fprintf(tw, "Username\t%s\n", user.Username)
				fmt.Fprintf(tw, "Email\t%s\n", user.Email)
				fmt.Fprintf(tw, "Role\t%s\n", user.Role())
				fmt.Fprintf(tw, "Eco points\t%d\n", user.EcoPoints)
			})
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")

	for _, field := range validation.AccountFields {
		name := strings.ReplaceAll(string(field), "_", "-")
		account[field] = registerCmd.Flags().String(name, "", strings.ReplaceAll(string(field), "_", " "))
	}

	passwdCmd.Flags().StringVar(&currentPassword, "current", "", "Current password")
	passwdCmd.Flags().StringVar(&newPassword, "new", "", "New password")
}

// submitError replaces ErrInvalidForm with the form's field errors.
func submitError(err error, fieldErrors func() error) error {
	if errors.Is(err, pages.ErrInvalidForm) {
		if ferr := fieldErrors(); ferr != nil {
			return ferr
		}
	}
	return err
}

// readSecret reads one line from in after printing prompt to out.
func readSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
