package cli

import (
	"fmt"
	"io"
	"time"

	"smokedash/internal/handlers"
	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// RangeOptions holds the date range flags of the sales reports.
type RangeOptions struct {
	*RootOptions
	From string
	To   string
}

func (o *RangeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.From, "from", "", "first day (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&o.To, "to", "", "last day (YYYY-MM-DD), defaults to --from")
}

func (o *RangeOptions) bounds() (time.Time, time.Time, error) {
	return parseRange(o.From, o.To, time.Now())
}

// NewReportCommand creates the report command group.
func NewReportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Sales, stock and debt reports",
	}

	cmd.AddCommand(newReportSalesCommand(opts))
	cmd.AddCommand(newRangeReportCommand(opts, "summary", "Revenue, sale count and average ticket",
		func(d handlers.ReportData) any { return d.Summary }, printSummary))
	cmd.AddCommand(newRangeReportCommand(opts, "top", "Best selling products",
		func(d handlers.ReportData) any { return d.TopSelling }, printTop))
	cmd.AddCommand(newRangeReportCommand(opts, "payments", "Totals per payment method",
		func(d handlers.ReportData) any { return d.Payments }, printPayments))
	cmd.AddCommand(newReportValuationCommand(opts))
	cmd.AddCommand(newReportDashboardCommand(opts))
	cmd.AddCommand(newReportAlertsCommand(opts))
	cmd.AddCommand(newReportExportCommand(opts))
	return cmd
}

func newReportSalesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "sales",
		Short:         "Revenue, best sellers and payment methods for a date range",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageReports),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := opts.bounds()
			if err != nil {
				return err
			}
			data := opts.app.Reports.Sales(from, to)
			return opts.formatter(cmd).Success(data, func(w io.Writer) {
				printSummary(w, data)
				fmt.Fprintln(w)
				printTop(w, data)
				fmt.Fprintln(w)
				printPayments(w, data)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

// newRangeReportCommand is one section of the sales report on its own.
func newRangeReportCommand(rootOpts *RootOptions, use, short string, pick func(handlers.ReportData) any, render func(io.Writer, handlers.ReportData)) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageReports),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := opts.bounds()
			if err != nil {
				return err
			}
			data := opts.app.Reports.Sales(from, to)
			return opts.formatter(cmd).Success(pick(data), func(w io.Writer) {
				render(w, data)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func printSummary(w io.Writer, d handlers.ReportData) {
	fmt.Fprintf(w, "Period:\t%s .. %s\n", d.From.Format(time.DateOnly), d.To.Format(time.DateOnly))
	fmt.Fprintf(w, "Revenue:\t%s\n", money(d.Summary.Revenue))
	fmt.Fprintf(w, "Sales:\t%d\n", d.Summary.Count)
	fmt.Fprintf(w, "Average:\t%s\n", money(d.Summary.Average))
}

func printTop(w io.Writer, d handlers.ReportData) {
	fmt.Fprintln(w, "PRODUCT\tQTY\tREVENUE")
	for _, p := range d.TopSelling {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.Quantity, money(p.Revenue))
	}
}

func printPayments(w io.Writer, d handlers.ReportData) {
	fmt.Fprintln(w, "METHOD\tCOUNT\tAMOUNT")
	for _, p := range d.Payments {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Method, p.Count, money(p.Amount))
	}
}

func newReportValuationCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "valuation",
		Short:         "Stock on hand at selling price, grouped by brand",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageReports),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := opts.app.Reports.Valuation()
			return opts.formatter(cmd).Success(v, func(w io.Writer) {
				for _, g := range v.Groups {
					fmt.Fprintf(w, "%s\n", g.Brand)
					for _, it := range g.Items {
						fmt.Fprintf(w, "  %s\t%d\t%s\t%s\n", it.Name, it.Quantity, money(it.Price), money(it.Total))
					}
					fmt.Fprintf(w, "  Subtotal\t\t\t%s\n", money(g.Subtotal))
				}
				fmt.Fprintf(w, "Units\t%d\n", v.Units)
				fmt.Fprintf(w, "Grand total\t\t\t%s\n", money(v.GrandTotal))
			})
		},
	}
}

func newReportDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dashboard",
		Short:         "Today's figures and outstanding debt",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageDashboard),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := opts.app.Reports.Dashboard()
			return opts.formatter(cmd).Success(d, func(w io.Writer) {
				fmt.Fprintf(w, "Today's revenue:\t%s\n", money(d.TodayRevenue))
				fmt.Fprintf(w, "Today's sales:\t%d\n", d.TodaySales)
				fmt.Fprintf(w, "Products:\t%d\n", d.Products)
				fmt.Fprintf(w, "Units in stock:\t%d\n", d.StockUnits)
				fmt.Fprintf(w, "Customers in debt:\t%d\n", d.CustomersWithDebt)
				fmt.Fprintf(w, "Outstanding debt:\t%s\n", money(d.OutstandingDebt))
			})
		},
	}
}

func newReportAlertsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "alerts",
		Short:         "Low stock and high debt alerts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageDashboard),
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts := opts.app.Reports.Alerts()
			return opts.formatter(cmd).Success(alerts, func(w io.Writer) {
				printAlerts(w, alerts)
			})
		},
	}
}

func newReportExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write the sales report for a date range to a spreadsheet",
		Long: `Write the sales report for a date range to a spreadsheet.

Example:
  pos report export april.xlsx --from 2026-04-01 --to 2026-04-30`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageReports),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := opts.bounds()
			if err != nil {
				return err
			}
			if err := opts.app.Reports.Export(args[0], from, to); err != nil {
				return WrapExitError(ExitCommandError, "export "+args[0], err)
			}
			return opts.formatter(cmd).Message("Exported %s .. %s to %s", from.Format(time.DateOnly), to.Format(time.DateOnly), args[0])
		},
	}

	opts.bind(cmd)
	return cmd
}
