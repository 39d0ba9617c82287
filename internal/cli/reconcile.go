package cli

import (
	"fmt"
	"io"

	"smokedash/internal/database"
	"smokedash/internal/models"

	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check stock, debt and sales against the audit ledger",
		Long: `Check stock, debt and sales against the audit ledger.

Nothing is changed. Records that predate the ledger are listed as
unverifiable and do not fail the check.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       requirePage(opts, models.PageSettings),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := opts.app.System.Status()
			if err := opts.formatter(cmd).Success(status, func(w io.Writer) {
				printStatus(w, status.DataDir, status.Reconcile)
			}); err != nil {
				return err
			}
			if status.Divergences > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d divergence(s) found", status.Divergences))
			}
			return nil
		},
	}
}

func printStatus(w io.Writer, dir string, report database.ReconcileReport) {
	fmt.Fprintf(w, "Data directory:\t%s\n", dir)
	fmt.Fprintf(w, "Records checked:\t%d\n", report.Checked)
	if len(report.Findings) == 0 {
		fmt.Fprintln(w, "No findings")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "KIND\tENTITY\tMESSAGE")
	for _, f := range report.Findings {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Kind, f.EntityID, f.Message)
	}
}
