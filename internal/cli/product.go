package cli

import (
	"fmt"
	"io"

	"smokedash/internal/models"
	"smokedash/internal/reports"

	"github.com/spf13/cobra"
)

// ProductOptions holds the product form flags shared by add and update.
type ProductOptions struct {
	*RootOptions
	Name     string
	Brand    string
	Price    float64
	Stock    int
	Barcode  string
	MinStock int
}

func (o *ProductOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "product name")
	cmd.Flags().StringVar(&o.Brand, "brand", "", "brand, groups the valuation report")
	cmd.Flags().Float64Var(&o.Price, "price", 0, "selling price")
	cmd.Flags().IntVar(&o.Stock, "stock", 0, "units on hand")
	cmd.Flags().StringVar(&o.Barcode, "barcode", "", "barcode, unique when set")
	cmd.Flags().IntVar(&o.MinStock, "min-stock", 0, "per-product reorder level")
}

// patch keeps only the flags the user actually passed.
func (o *ProductOptions) patch(cmd *cobra.Command) models.ProductPatch {
	var p models.ProductPatch
	f := cmd.Flags()
	if f.Changed("name") {
		p.Name = &o.Name
	}
	if f.Changed("brand") {
		p.Brand = &o.Brand
	}
	if f.Changed("price") {
		p.Price = &o.Price
	}
	if f.Changed("stock") {
		p.Stock = &o.Stock
	}
	if f.Changed("barcode") {
		p.Barcode = &o.Barcode
	}
	if f.Changed("min-stock") {
		p.MinStock = &o.MinStock
	}
	return p
}

// NewProductCommand creates the product command group.
func NewProductCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the inventory",
	}

	cmd.AddCommand(newProductListCommand(opts))
	cmd.AddCommand(newProductShowCommand(opts))
	cmd.AddCommand(newProductSearchCommand(opts))
	cmd.AddCommand(newProductAddCommand(opts))
	cmd.AddCommand(newProductUpdateCommand(opts))
	cmd.AddCommand(newProductDeleteCommand(opts))
	cmd.AddCommand(newProductAdjustCommand(opts))
	cmd.AddCommand(newProductLowCommand(opts))
	return cmd
}

func newProductListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all products",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			products := opts.app.Inventory.List()
			return opts.formatter(cmd).Success(products, func(w io.Writer) {
				printProducts(w, products)
			})
		},
	}
}

func newProductShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id|barcode>",
		Short:         "Show one product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := opts.app.DB
			p, err := db.GetProduct(args[0])
			if err != nil {
				if p, err = db.FindProductByBarcode(args[0]); err != nil {
					return err
				}
			}
			return opts.formatter(cmd).Success(p, func(w io.Writer) {
				printProducts(w, []models.Product{*p})
			})
		},
	}
}

func newProductSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find products by name, brand or barcode",
		Long: `Find products by name, brand or barcode.

Matching ignores case and accents, the way the till search box does.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			products := opts.app.POS.Search(args[0])
			return opts.formatter(cmd).Success(products, func(w io.Writer) {
				printProducts(w, products)
			})
		},
	}
}

func newProductAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Long: `Add a product.

Example:
  pos product add --name "Marlboro Red" --brand Marlboro --price 12.5 --stock 40 --barcode 8690000000011`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.app.Inventory.Add(models.Product{
				Name:     opts.Name,
				Brand:    opts.Brand,
				Price:    opts.Price,
				Stock:    opts.Stock,
				Barcode:  opts.Barcode,
				MinStock: opts.MinStock,
			})
			if err != nil {
				return err
			}
			opts.app.Log.WithField("product", p.ID).Info("product added")
			return opts.formatter(cmd).Success(p, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s (%s)\n", p.Name, p.ID)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func newProductUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Change a product's details, price or stock",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(rootOpts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.app.Inventory.Update(args[0], opts.patch(cmd))
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(p, func(w io.Writer) {
				fmt.Fprintf(w, "Updated %s (%s)\n", p.Name, p.ID)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func newProductDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove a product; past sales keep their lines",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.Inventory.Delete(args[0]); err != nil {
				return err
			}
			return opts.formatter(cmd).Message("Deleted product %s", args[0])
		},
	}
}

func newProductAdjustCommand(opts *RootOptions) *cobra.Command {
	var delta int

	cmd := &cobra.Command{
		Use:   "adjust <id>",
		Short: "Correct stock by a signed amount",
		Long: `Correct stock by a signed amount (delivery, breakage, count).

Example:
  pos product adjust 20260417093000250 --by=-2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.app.Inventory.Adjust(args[0], delta)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(p, func(w io.Writer) {
				fmt.Fprintf(w, "%s stock is now %d\n", p.Name, p.Stock)
			})
		},
	}

	cmd.Flags().IntVar(&delta, "by", 0, "units to add (negative to remove)")
	return cmd
}

func newProductLowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "low",
		Short:         "List products under the low-stock threshold",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageInventory),
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts := opts.app.Inventory.LowStockAlerts()
			return opts.formatter(cmd).Success(alerts, func(w io.Writer) {
				printAlerts(w, alerts)
			})
		},
	}
}

func printProducts(w io.Writer, products []models.Product) {
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tPRICE\tSTOCK\tBARCODE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Brand, money(p.Price), p.Stock, p.Barcode)
	}
}

func printAlerts(w io.Writer, alerts []reports.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts")
		return
	}
	fmt.Fprintln(w, "PRIORITY\tKIND\tNAME\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Priority, a.Kind, a.Name, a.Message)
	}
}
