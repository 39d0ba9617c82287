package cli

import (
	"fmt"
	"io"

	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the shop settings",
	}

	cmd.AddCommand(newSettingsShowCommand(opts))
	cmd.AddCommand(newSettingsSetCommand(opts))
	return cmd
}

func newSettingsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the shop settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageSettings),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := opts.app.DB.GetSettings(true)
			return opts.formatter(cmd).Success(s, func(w io.Writer) {
				printSettings(w, s)
			})
		},
	}
}

func newSettingsSetCommand(opts *RootOptions) *cobra.Command {
	var (
		theme, currency, shopName, language, logo string
		showLogo, autoPrint                       bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; flags not given keep their value",
		Long: `Change settings; flags not given keep their value.

Example:
  pos settings set --shop-name "Corner Smoke" --currency EUR --language en`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageSettings),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := opts.app.DB.GetSettings(false)
			f := cmd.Flags()
			if f.Changed("theme") {
				s.Theme = theme
			}
			if f.Changed("currency") {
				s.Currency = currency
			}
			if f.Changed("shop-name") {
				s.ShopName = shopName
			}
			if f.Changed("language") {
				s.Language = language
			}
			if f.Changed("logo") {
				s.LogoPath = &logo
			}
			if f.Changed("show-logo") {
				s.ShowLogo = &showLogo
			}
			if f.Changed("auto-print") {
				s.AutoPrint = &autoPrint
			}

			saved, err := opts.app.DB.SaveSettings(s)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(saved, func(w io.Writer) {
				printSettings(w, saved)
			})
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "dark|light")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code shown on receipts")
	cmd.Flags().StringVar(&shopName, "shop-name", "", "name printed on reports")
	cmd.Flags().StringVar(&language, "language", "", "interface language tag (ar, en, ...)")
	cmd.Flags().StringVar(&logo, "logo", "", "path to the receipt logo")
	cmd.Flags().BoolVar(&showLogo, "show-logo", false, "print the logo on receipts")
	cmd.Flags().BoolVar(&autoPrint, "auto-print", false, "print a receipt after every sale")
	return cmd
}

func printSettings(w io.Writer, s models.Settings) {
	fmt.Fprintf(w, "Shop:\t%s\n", s.ShopName)
	fmt.Fprintf(w, "Currency:\t%s\n", s.Currency)
	fmt.Fprintf(w, "Language:\t%s\n", s.Language)
	fmt.Fprintf(w, "Theme:\t%s\n", s.Theme)
	if s.LogoPath != nil {
		fmt.Fprintf(w, "Logo:\t%s\n", *s.LogoPath)
	}
	if s.ShowLogo != nil {
		fmt.Fprintf(w, "Show logo:\t%t\n", *s.ShowLogo)
	}
	if s.AutoPrint != nil {
		fmt.Fprintf(w, "Auto print:\t%t\n", *s.AutoPrint)
	}
}
