package cli

import (
	"fmt"
	"io"
	"strings"

	"smokedash/internal/database"
	"smokedash/internal/middleware"
	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// UserOptions holds the account form flags.
type UserOptions struct {
	*RootOptions
	Password string
	Role     string
	FullName string
	Phone    string
	Pages    []string
}

func (o *UserOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Role, "role", string(models.RoleCashier), "admin|manager|cashier")
	cmd.Flags().StringVar(&o.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&o.Phone, "phone", "", "phone number")
	cmd.Flags().StringSliceVar(&o.Pages, "pages", nil, "pages the user may open (default: the role's pages)")
}

// NewUserCommand creates the user command group.
func NewUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	cmd.AddCommand(newUserListCommand(opts))
	cmd.AddCommand(newUserAddCommand(opts))
	cmd.AddCommand(newUserUpdateCommand(opts))
	cmd.AddCommand(newUserPasswdCommand(opts))
	cmd.AddCommand(newUserDeleteCommand(opts))
	return cmd
}

func newUserListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List accounts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			users := opts.app.DB.ListUsers(true)
			return opts.formatter(cmd).Success(users, func(w io.Writer) {
				fmt.Fprintln(w, "USERNAME\tROLE\tNAME\tPAGES")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Username, u.Role, u.FullName, strings.Join(u.EffectivePermissions(), ","))
				}
			})
		},
	}
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Long: `Create an account.

Example:
  pos user add sara --password s3cret --role manager --full-name "Sara Ali"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := opts.app.DB.AddUser(database.UserInput{
				Username:    args[0],
				Password:    opts.Password,
				Role:        models.Role(opts.Role),
				FullName:    opts.FullName,
				Phone:       opts.Phone,
				Permissions: opts.Pages,
			})
			if err != nil {
				return err
			}
			opts.app.Log.WithField("username", u.Username).Info("user added")
			return opts.formatter(cmd).Success(u, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s (%s)\n", u.Username, u.Role)
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Password, "password", "", "initial password")
	return cmd
}

func newUserUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "update <username>",
		Short:         "Change an account's profile, role or pages",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch database.UserPatch
			f := cmd.Flags()
			if f.Changed("full-name") {
				patch.FullName = &opts.FullName
			}
			if f.Changed("phone") {
				patch.Phone = &opts.Phone
			}
			if f.Changed("role") {
				role := models.Role(opts.Role)
				patch.Role = &role
			}
			if f.Changed("pages") {
				patch.Permissions = &opts.Pages
			}
			u, err := opts.app.DB.UpdateUser(args[0], patch)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(u, func(w io.Writer) {
				fmt.Fprintf(w, "Updated %s (%s)\n", u.Username, u.Role)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func newUserPasswdCommand(opts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd [username]",
		Short: "Change a password",
		Long: `Change a password. Without a username your own password is changed;
changing someone else's needs the users page.

Without --password the new password is read from the first line of stdin.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requireSession(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims := currentClaims(cmd)
			username := claims.Username
			if len(args) > 0 && args[0] != claims.Username {
				if err := middleware.RequirePage(models.PageUsers)(cmd, args); err != nil {
					return err
				}
				username = args[0]
			}
			if !cmd.Flags().Changed("password") {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if err := opts.app.DB.UpdatePassword(username, password); err != nil {
				return err
			}
			return opts.formatter(cmd).Message("Password changed for %s", username)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	return cmd
}

func newUserDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <username>",
		Short:         "Remove an account",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == currentClaims(cmd).Username {
				return fmt.Errorf("%w: you cannot delete the account you are logged in with", database.ErrValidation)
			}
			if err := opts.app.DB.DeleteUser(args[0]); err != nil {
				return err
			}
			opts.app.Log.WithField("username", args[0]).Info("user deleted")
			return opts.formatter(cmd).Message("Deleted user %s", args[0])
		},
	}
}
