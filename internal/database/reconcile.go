package database

import (
	"fmt"
	"sort"

	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

// Finding kinds reported by Reconcile.
const (
	FindingStockDivergence   = "stock_divergence"
	FindingDebtDivergence    = "debt_divergence"
	FindingUnverifiable      = "unverifiable"
	FindingSaleMissingStock  = "sale_missing_stock"
	FindingSaleMissingDebt   = "sale_missing_debt"
	FindingSaleReversedKept  = "sale_reversed_not_removed"
	FindingSaleReversedTwice = "sale_reversed_twice"
)

const debtReconcileTolerance = 0.005

// Finding is one inconsistency between stored balances and the ledger.
type Finding struct {
	Kind     string  `json:"kind"`
	EntityID string  `json:"entity_id"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Message  string  `json:"message"`
}

// ReconcileReport lists findings and how many records were looked at.
type ReconcileReport struct {
	Findings []Finding `json:"findings"`
	Checked  int       `json:"checked"`
}

// Clean reports whether nothing diverged. Unverifiable legacy records do
// not count against it.
func (r ReconcileReport) Clean() bool {
	for _, f := range r.Findings {
		if f.Kind != FindingUnverifiable {
			return false
		}
	}
	return true
}

type saleMark struct {
	saleID   string
	entity   models.AuditEntity
	entityID string
	reason   string
}

// Reconcile replays the audit ledger against the stored products,
// customers and sales. It only reads; repairs are manual adjustments.
func (db *DB) Reconcile() ReconcileReport {
	db.mu.Lock()
	defer db.mu.Unlock()

	ledger := readDoc[[]models.AuditLog](db, docAudit, false)
	products := readDoc[[]models.Product](db, docProducts, false)
	customers := readDoc[[]models.Customer](db, docCustomers, false)
	sales := readDoc[[]models.Sale](db, docSales, false)

	stock := make(map[string]int)
	debt := make(map[string]decimal.Decimal)
	seen := make(map[string]bool)
	marks := make(map[saleMark]bool)
	reversed := make(map[string]bool)
	reversals := make(map[saleMark]int)
	var first models.Timestamp
	for _, e := range ledger {
		if first.IsZero() || e.CreatedAt.Before(first.Time) {
			first = e.CreatedAt
		}
		key := string(e.Entity) + ":" + e.EntityID
		seen[key] = true
		switch e.Entity {
		case models.AuditStock:
			stock[e.EntityID] += int(e.Delta)
		case models.AuditDebt:
			debt[e.EntityID] = debt[e.EntityID].Add(decimal.NewFromFloat(e.Delta))
		}
		if e.SaleID != "" {
			marks[saleMark{e.SaleID, e.Entity, e.EntityID, e.Reason}] = true
			if e.Reason == models.ReasonSaleReverse {
				reversed[e.SaleID] = true
				reversals[saleMark{e.SaleID, e.Entity, e.EntityID, e.Reason}]++
			}
		}
	}

	var report ReconcileReport
	for _, p := range products {
		report.Checked++
		if !seen[string(models.AuditStock)+":"+p.ID] {
			report.Findings = append(report.Findings, Finding{
				Kind: FindingUnverifiable, EntityID: p.ID, Actual: float64(p.Stock),
				Message: fmt.Sprintf("product %s has no stock history", p.Name),
			})
			continue
		}
		if expected := stock[p.ID]; expected != p.Stock {
			report.Findings = append(report.Findings, Finding{
				Kind: FindingStockDivergence, EntityID: p.ID, Expected: float64(expected), Actual: float64(p.Stock),
				Message: fmt.Sprintf("product %s stock is %d, ledger says %d", p.Name, p.Stock, expected),
			})
		}
	}

	customerExists := make(map[string]bool, len(customers))
	tolerance := decimal.NewFromFloat(debtReconcileTolerance)
	for _, c := range customers {
		report.Checked++
		customerExists[c.ID] = true
		if !seen[string(models.AuditDebt)+":"+c.ID] {
			report.Findings = append(report.Findings, Finding{
				Kind: FindingUnverifiable, EntityID: c.ID, Actual: c.Debt,
				Message: fmt.Sprintf("customer %s has no debt history", c.Name),
			})
			continue
		}
		expected := debt[c.ID]
		if expected.Sub(decimal.NewFromFloat(c.Debt)).Abs().GreaterThan(tolerance) {
			report.Findings = append(report.Findings, Finding{
				Kind: FindingDebtDivergence, EntityID: c.ID, Expected: expected.InexactFloat64(), Actual: c.Debt,
				Message: fmt.Sprintf("customer %s debt is %.2f, ledger says %s", c.Name, c.Debt, expected.StringFixed(2)),
			})
		}
	}

	productExists := make(map[string]bool, len(products))
	for _, p := range products {
		productExists[p.ID] = true
	}
	saleInLedger := make(map[string]bool)
	for m := range marks {
		saleInLedger[m.saleID] = true
	}
	for _, s := range sales {
		report.Checked++
		if reversed[s.ID] {
			report.Findings = append(report.Findings, Finding{
				Kind: FindingSaleReversedKept, EntityID: s.ID, Expected: 0, Actual: s.TotalAmount,
				Message: fmt.Sprintf("sale %s was reversed but is still recorded", s.InvoiceNumber),
			})
			continue
		}
		// Sales older than the ledger cannot be checked.
		if !saleInLedger[s.ID] && (first.IsZero() || s.Timestamp.Before(first.Time)) {
			continue
		}
		for _, productID := range saleProducts(s) {
			if !productExists[productID] {
				continue
			}
			if !marks[saleMark{s.ID, models.AuditStock, productID, models.ReasonSale}] {
				report.Findings = append(report.Findings, Finding{
					Kind: FindingSaleMissingStock, EntityID: s.ID,
					Message: fmt.Sprintf("sale %s never reduced stock of product %s", s.InvoiceNumber, productID),
				})
			}
		}
		if s.IsDebt() && customerExists[*s.CustomerID] &&
			!marks[saleMark{s.ID, models.AuditDebt, *s.CustomerID, models.ReasonSale}] {
			report.Findings = append(report.Findings, Finding{
				Kind: FindingSaleMissingDebt, EntityID: s.ID, Expected: s.TotalAmount,
				Message: fmt.Sprintf("sale %s never raised the debt of customer %s", s.InvoiceNumber, *s.CustomerID),
			})
		}
	}

	// A deleted sale leaves one reversal per product and one for its debt.
	var repeated []saleMark
	for m, n := range reversals {
		if n > 1 {
			repeated = append(repeated, m)
		}
	}
	sort.Slice(repeated, func(i, j int) bool {
		a, b := repeated[i], repeated[j]
		if a.saleID != b.saleID {
			return a.saleID < b.saleID
		}
		if a.entity != b.entity {
			return a.entity < b.entity
		}
		return a.entityID < b.entityID
	})
	for _, m := range repeated {
		report.Findings = append(report.Findings, Finding{
			Kind: FindingSaleReversedTwice, EntityID: m.saleID, Expected: 1, Actual: float64(reversals[m]),
			Message: fmt.Sprintf("sale %s reversed %s of %s %d times", m.saleID, m.entity, m.entityID, reversals[m]),
		})
	}

	if len(report.Findings) > 0 {
		db.log.WithField("findings", len(report.Findings)).Warn("reconciliation found inconsistencies")
	}
	return report
}

func saleProducts(s models.Sale) []string {
	set := make(map[string]bool, len(s.Items))
	var ids []string
	for _, it := range s.Items {
		if !set[it.ProductID] {
			set[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	sort.Strings(ids)
	return ids
}
