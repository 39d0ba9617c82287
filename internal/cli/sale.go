package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"smokedash/internal/database"
	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// SaleOptions holds flags for sale record.
type SaleOptions struct {
	*RootOptions
	Items    []string
	Barcodes []string
	Method   string
	Customer string
	Shift    string
}

// NewSaleCommand creates the sale command group.
func NewSaleCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Ring up, look up and void sales",
	}

	cmd.AddCommand(newSaleRecordCommand(opts))
	cmd.AddCommand(newSaleListCommand(opts))
	cmd.AddCommand(newSaleShowCommand(opts))
	cmd.AddCommand(newSaleDeleteCommand(opts))
	return cmd
}

func newSaleRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Check out a cart",
		Long: `Check out a cart.

Each --item is <product-id>[:quantity]; each --barcode adds one unit.
The sale goes to the user's open shift unless --shift names another.

Example:
  pos sale record --item 20260417093000250:2 --barcode 8690000000011 --method Debt --customer 20260417094500000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordSale(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "cart line as <product-id>[:quantity]")
	cmd.Flags().StringArrayVar(&opts.Barcodes, "barcode", nil, "scan a barcode (one unit)")
	cmd.Flags().StringVar(&opts.Method, "method", string(models.PaymentCash), "payment method (Cash|Card|Debt)")
	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer id, required for Debt")
	cmd.Flags().StringVar(&opts.Shift, "shift", "", "shift id (default: your open shift)")
	return cmd
}

func recordSale(opts *SaleOptions, cmd *cobra.Command) error {
	app := opts.app
	pos := app.POS

	// 1. Fill the cart
	for _, item := range opts.Items {
		id, qty, err := parseItem(item)
		if err != nil {
			return err
		}
		if err := pos.AddToCart(id, qty); err != nil {
			return err
		}
	}
	for _, code := range opts.Barcodes {
		if _, err := pos.Scan(code); err != nil {
			return err
		}
	}

	// 2. Attach the shift
	shiftID := opts.Shift
	if shiftID == "" {
		if active := app.DB.GetActiveShift(currentClaims(cmd).Username); active != nil {
			shiftID = active.ID
		}
	}

	// 3. Check out
	sale, err := pos.Checkout(models.PaymentMethod(opts.Method), shiftID, opts.Customer)
	if sale == nil {
		return err
	}
	if err != nil {
		app.Log.WithError(err).Warn("run 'pos reconcile' to see what was not applied")
	}

	if outErr := opts.formatter(cmd).Success(sale, func(w io.Writer) {
		printSale(w, *sale)
	}); outErr != nil {
		return outErr
	}
	return err
}

// parseItem splits "<id>:<qty>"; a bare id means one unit.
func parseItem(s string) (string, int, error) {
	id, qtyText, found := strings.Cut(s, ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", 0, fmt.Errorf("%w: empty product id in %q", database.ErrValidation, s)
	}
	if !found {
		return id, 1, nil
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad quantity in %q", database.ErrValidation, s)
	}
	return id, qty, nil
}

func newSaleListCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List invoices, optionally within a date range",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInvoices),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := opts.app.DB
			var sales []models.Sale
			if from == "" && to == "" {
				sales = db.ListSales(true)
			} else {
				start, end, err := parseRange(from, to, time.Now())
				if err != nil {
					return err
				}
				sales = db.SalesInRange(start, end)
			}
			return opts.formatter(cmd).Success(sales, func(w io.Writer) {
				printSales(w, sales)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD), defaults to --from")
	return cmd
}

func newSaleShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id|invoice>",
		Short:         "Show one invoice with its lines",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInvoices),
		RunE: func(cmd *cobra.Command, args []string) error {
			sale, err := opts.app.DB.GetSale(args[0])
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(sale, func(w io.Writer) {
				printSale(w, *sale)
			})
		},
	}
}

func newSaleDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|invoice>",
		Short: "Void a sale, returning stock and reversing debt",
		Long: `Void a sale, returning stock and reversing debt.

Its invoice number is never issued again.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInvoices),
		RunE: func(cmd *cobra.Command, args []string) error {
			sale, err := opts.app.DB.DeleteSale(args[0])
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(sale, func(w io.Writer) {
				fmt.Fprintf(w, "Voided invoice %s (%s)\n", sale.InvoiceNumber, money(sale.TotalAmount))
			})
		},
	}
}

func printSale(w io.Writer, s models.Sale) {
	fmt.Fprintf(w, "Invoice:\t%s\n", s.InvoiceNumber)
	fmt.Fprintf(w, "Date:\t%s\n", s.Timestamp.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Payment:\t%s\n", s.PaymentMethod)
	if s.CustomerID != nil {
		fmt.Fprintf(w, "Customer:\t%s\n", *s.CustomerID)
	}
	if s.ShiftID != nil {
		fmt.Fprintf(w, "Shift:\t%s\n", *s.ShiftID)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "ITEM\tQTY\tPRICE\tTOTAL")
	for _, it := range s.Items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", it.Name, it.Quantity, money(it.Price), money(it.Total))
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%s\n", money(s.TotalAmount))
}

func printSales(w io.Writer, sales []models.Sale) {
	fmt.Fprintln(w, "INVOICE\tDATE\tMETHOD\tITEMS\tTOTAL")
	for _, s := range sales {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			s.InvoiceNumber, s.Timestamp.Local().Format("2006-01-02 15:04"), s.PaymentMethod, len(s.Items), money(s.TotalAmount))
	}
}

// parseRange reads YYYY-MM-DD days in local time. An empty from means
// today; an empty to means the same day as from.
func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	now = now.Local()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --from %q is not YYYY-MM-DD", database.ErrValidation, from)
		}
		start = t
	}
	end := start
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --to %q is not YYYY-MM-DD", database.ErrValidation, to)
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --to is before --from", database.ErrValidation)
	}
	return start, end, nil
}
