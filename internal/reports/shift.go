// Package reports derives read-time figures from the repository's records:
// shift (Z report) reconciliation, sales summaries, stock valuation,
// dashboard numbers and alerts, plus their text and spreadsheet renderings.
//
// Nothing here writes to the data directory.
package reports

import (
	"time"

	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

// ShiftReconciliation compares what the drawer should hold with what the
// cashier declared. Declared and Variance stay nil while the shift is open.
type ShiftReconciliation struct {
	ShiftID   string     `json:"shift_id"`
	Username  string     `json:"username"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Closed    bool       `json:"closed"`
	Notes     string     `json:"notes,omitempty"`

	StartCash  float64  `json:"start_cash"`
	SaleCount  int      `json:"sale_count"`
	TotalSales float64  `json:"total_sales"`
	CashSales  float64  `json:"cash_sales"`
	CardSales  float64  `json:"card_sales"`
	DebtSales  float64  `json:"debt_sales"`
	Expected   float64  `json:"expected_cash"`
	Declared   *float64 `json:"declared_cash,omitempty"`
	Variance   *float64 `json:"variance,omitempty"`
}

// ReconcileShift computes expected cash as start cash plus the cash-method
// sales attributed to the shift. Sales from other shifts are ignored.
func ReconcileShift(shift models.Shift, sales []models.Sale) ShiftReconciliation {
	rec := ShiftReconciliation{
		ShiftID:   shift.ID,
		Username:  shift.Username,
		StartTime: shift.StartTime.Time,
		Closed:    shift.Status == models.ShiftClosed,
		Notes:     shift.Notes,
		StartCash: shift.StartCash,
	}
	if shift.EndTime != nil && !shift.EndTime.IsZero() {
		end := shift.EndTime.Time
		rec.EndTime = &end
	}

	var total, cash, card, debt decimal.Decimal
	for _, s := range sales {
		if s.ShiftID == nil || *s.ShiftID != shift.ID {
			continue
		}
		amount := decimal.NewFromFloat(s.TotalAmount)
		rec.SaleCount++
		total = total.Add(amount)
		switch s.PaymentMethod {
		case models.PaymentCash:
			cash = cash.Add(amount)
		case models.PaymentCard:
			card = card.Add(amount)
		case models.PaymentDebt:
			debt = debt.Add(amount)
		}
	}
	expected := decimal.NewFromFloat(shift.StartCash).Add(cash)

	rec.TotalSales = total.InexactFloat64()
	rec.CashSales = cash.InexactFloat64()
	rec.CardSales = card.InexactFloat64()
	rec.DebtSales = debt.InexactFloat64()
	rec.Expected = expected.InexactFloat64()

	if rec.Closed {
		declared := shift.EndCash
		variance := decimal.NewFromFloat(declared).Sub(expected).InexactFloat64()
		rec.Declared = &declared
		rec.Variance = &variance
	}
	return rec
}
