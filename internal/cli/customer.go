package cli

import (
	"fmt"
	"io"

	"smokedash/internal/database"
	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// CustomerOptions holds the customer form flags.
type CustomerOptions struct {
	*RootOptions
	Name    string
	Phone   string
	Address string
}

func (o *CustomerOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&o.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&o.Address, "address", "", "address")
}

// NewCustomerCommand creates the customer command group.
func NewCustomerCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage credit customers and their debt",
	}

	cmd.AddCommand(newCustomerListCommand(opts))
	cmd.AddCommand(newCustomerShowCommand(opts))
	cmd.AddCommand(newCustomerAddCommand(opts))
	cmd.AddCommand(newCustomerUpdateCommand(opts))
	cmd.AddCommand(newCustomerDeleteCommand(opts))
	cmd.AddCommand(newCustomerCollectCommand(opts))
	return cmd
}

func newCustomerListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List customers with their balances",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageCustomers),
		RunE: func(cmd *cobra.Command, args []string) error {
			customers := opts.app.DB.ListCustomers(true)
			return opts.formatter(cmd).Success(customers, func(w io.Writer) {
				printCustomers(w, customers)
			})
		},
	}
}

func newCustomerShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one customer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageCustomers),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.app.DB.GetCustomer(args[0])
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(c, func(w io.Writer) {
				printCustomers(w, []models.Customer{*c})
			})
		},
	}
}

func newCustomerAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CustomerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "add",
		Short:         "Add a customer with no debt",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageCustomers),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.app.DB.AddCustomer(database.CustomerInput{
				Name:    opts.Name,
				Phone:   opts.Phone,
				Address: opts.Address,
			})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(c, func(w io.Writer) {
				fmt.Fprintf(w, "Added customer %s (%s)\n", c.Name, c.ID)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func newCustomerUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CustomerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Change a customer's contact details",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageCustomers),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.CustomerPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &opts.Name
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &opts.Phone
			}
			if cmd.Flags().Changed("address") {
				patch.Address = &opts.Address
			}
			c, err := opts.app.DB.UpdateCustomer(args[0], patch)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(c, func(w io.Writer) {
				fmt.Fprintf(w, "Updated customer %s (%s)\n", c.Name, c.ID)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func newCustomerDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove a customer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageCustomers),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.DB.DeleteCustomer(args[0]); err != nil {
				return err
			}
			return opts.formatter(cmd).Message("Deleted customer %s", args[0])
		},
	}
}

func newCustomerCollectCommand(opts *RootOptions) *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "collect <id>",
		Short: "Record a debt repayment",
		Long: `Record a debt repayment. The amount may not exceed the current debt.

Example:
  pos customer collect 20260417094500000 --amount 25`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageCustomers),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.app.DB.CollectDebt(args[0], amount)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(c, func(w io.Writer) {
				fmt.Fprintf(w, "Collected %s from %s, remaining debt %s\n", money(amount), c.Name, money(c.Debt))
			})
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "amount paid back")
	return cmd
}

func printCustomers(w io.Writer, customers []models.Customer) {
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tDEBT")
	for _, c := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, money(c.Debt))
	}
}
