package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"smokedash/internal/auth"
	"smokedash/internal/middleware"

	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Open a session on this terminal",
		Long: `Open a session on this terminal.

Without --password the password is read from the first line of stdin.

Example:
  pos login cashier --password 123`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("password") {
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			claims, err := app.Login.Login(args[0], password)
			if err != nil {
				app.Log.WithField("username", args[0]).Info("login rejected")
				return err
			}
			app.Log.WithField("username", claims.Username).Info("logged in")
			return opts.formatter(cmd).Success(sessionView(claims), func(w io.Writer) {
				fmt.Fprintf(w, "Logged in as %s (%s)\n", claims.Username, claims.Role)
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Close the session on this terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if err := app.Login.Logout(); err != nil {
				return err
			}
			return opts.formatter(cmd).Message("Logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the logged-in user and their pages",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requireSession(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims := currentClaims(cmd)
			return opts.formatter(cmd).Success(sessionView(claims), func(w io.Writer) {
				fmt.Fprintf(w, "User:\t%s\n", claims.Username)
				fmt.Fprintf(w, "Role:\t%s\n", claims.Role)
				fmt.Fprintf(w, "Pages:\t%s\n", strings.Join(claims.Permissions, ", "))
				if claims.ExpiresAt != nil {
					fmt.Fprintf(w, "Expires:\t%s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
				}
			})
		},
	}
}

type session struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func sessionView(c *auth.Claims) session {
	return session{Username: c.Username, Role: string(c.Role), Permissions: c.Permissions}
}

// currentClaims is only valid after requireSession or requirePage ran.
func currentClaims(cmd *cobra.Command) *auth.Claims {
	claims, _ := middleware.ClaimsFrom(cmd.Context())
	return claims
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
