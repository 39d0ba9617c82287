package reports

import (
	"fmt"
	"io"
	"strings"

	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

const (
	reportWidth = 36
	timeLayout  = "2006-01-02 15:04"
)

// RenderShiftReport writes the plain-text Z report for a shift.
func RenderShiftReport(w io.Writer, rec ShiftReconciliation, settings models.Settings) error {
	money := func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(2) + " " + settings.Currency
	}

	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-14s%s\n", label, value)
	}
	rule := func(ch string) {
		b.WriteString(strings.Repeat(ch, reportWidth) + "\n")
	}

	b.WriteString(center(settings.ShopName) + "\n")
	if rec.Closed {
		b.WriteString(center("Z REPORT") + "\n")
	} else {
		b.WriteString(center("X REPORT (shift open)") + "\n")
	}
	rule("=")
	line("Shift:", rec.ShiftID)
	line("Cashier:", rec.Username)
	line("Opened:", rec.StartTime.Format(timeLayout))
	if rec.EndTime != nil {
		line("Closed:", rec.EndTime.Format(timeLayout))
	}
	rule("-")
	line("Sales:", fmt.Sprint(rec.SaleCount))
	line("Total sales:", money(rec.TotalSales))
	line("  Cash:", money(rec.CashSales))
	line("  Card:", money(rec.CardSales))
	line("  Debt:", money(rec.DebtSales))
	rule("-")
	line("Opening cash:", money(rec.StartCash))
	line("Expected:", money(rec.Expected))
	if rec.Declared != nil {
		line("Declared:", money(*rec.Declared))
	}
	if rec.Variance != nil {
		line("Variance:", money(*rec.Variance))
	}
	if rec.Notes != "" {
		line("Notes:", rec.Notes)
	}
	rule("=")

	_, err := io.WriteString(w, b.String())
	return err
}

func center(s string) string {
	n := len([]rune(s))
	if n >= reportWidth {
		return s
	}
	return strings.Repeat(" ", (reportWidth-n)/2) + s
}
