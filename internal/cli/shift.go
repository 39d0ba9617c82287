package cli

import (
	"fmt"
	"io"

	"smokedash/internal/database"
	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// NewShiftCommand creates the shift command group.
func NewShiftCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Open and close the cash drawer",
	}

	cmd.AddCommand(newShiftOpenCommand(opts))
	cmd.AddCommand(newShiftCloseCommand(opts))
	cmd.AddCommand(newShiftStatusCommand(opts))
	cmd.AddCommand(newShiftListCommand(opts))
	cmd.AddCommand(newShiftReportCommand(opts))
	return cmd
}

func newShiftOpenCommand(opts *RootOptions) *cobra.Command {
	var cash float64

	cmd := &cobra.Command{
		Use:           "open",
		Short:         "Start a shift with the counted opening cash",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			shift, err := opts.app.DB.OpenShift(currentClaims(cmd).Username, cash)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(shift, func(w io.Writer) {
				fmt.Fprintf(w, "Shift %s opened with %s\n", shift.ID, money(shift.StartCash))
			})
		},
	}

	cmd.Flags().Float64Var(&cash, "cash", 0, "opening cash in the drawer")
	return cmd
}

func newShiftCloseCommand(opts *RootOptions) *cobra.Command {
	var (
		cash  float64
		notes string
	)

	cmd := &cobra.Command{
		Use:   "close [shift-id]",
		Short: "Close a shift with the counted cash and print its Z report",
		Long: `Close a shift with the counted cash and print its Z report.

Without an id the logged-in user's open shift is closed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := opts.app
			id, err := shiftRef(app, cmd, args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("cash") {
				return fmt.Errorf("%w: --cash is required", database.ErrValidation)
			}
			if _, err := app.DB.CloseShift(id, cash, notes); err != nil {
				return err
			}
			return writeShiftReport(opts, cmd, id)
		},
	}

	cmd.Flags().Float64Var(&cash, "cash", 0, "counted cash in the drawer")
	cmd.Flags().StringVar(&notes, "notes", "", "closing notes")
	return cmd
}

func newShiftStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the logged-in user's open shift (X report)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shiftRef(opts.app, cmd, nil)
			if err != nil {
				return err
			}
			return writeShiftReport(opts, cmd, id)
		},
	}
}

func newShiftListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all shifts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			shifts := opts.app.DB.ListShifts(true)
			return opts.formatter(cmd).Success(shifts, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tUSER\tSTATUS\tSTART\tOPENING\tCLOSING")
				for _, s := range shifts {
					closing := "-"
					if s.Status == models.ShiftClosed {
						closing = money(s.EndCash)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						s.ID, s.Username, s.Status, s.StartTime.Local().Format("2006-01-02 15:04"), money(s.StartCash), closing)
				}
			})
		},
	}
}

func newShiftReportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "report [shift-id]",
		Short:         "Print the X or Z report of a shift",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PagePOS),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shiftRef(opts.app, cmd, args)
			if err != nil {
				return err
			}
			return writeShiftReport(opts, cmd, id)
		},
	}
}

// shiftRef is the id argument, or the caller's open shift when absent.
func shiftRef(app *App, cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	username := currentClaims(cmd).Username
	active := app.DB.GetActiveShift(username)
	if active == nil {
		return "", fmt.Errorf("%w: %s has no open shift", database.ErrNotFound, username)
	}
	return active.ID, nil
}

// writeShiftReport prints the till slip in text mode and the figures in JSON.
func writeShiftReport(opts *RootOptions, cmd *cobra.Command, id string) error {
	reports := opts.app.Reports
	if opts.Format == "json" {
		rec, err := reports.Shift(id)
		if err != nil {
			return err
		}
		return opts.formatter(cmd).Success(rec, nil)
	}
	return reports.RenderShift(cmd.OutOrStdout(), id)
}
