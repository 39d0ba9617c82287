package reports

import (
	"sort"

	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

// SalesSummary is revenue, order count and average ticket for a set of sales.
type SalesSummary struct {
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func Summary(sales []models.Sale) SalesSummary {
	revenue := decimal.Zero
	for _, s := range sales {
		revenue = revenue.Add(decimal.NewFromFloat(s.TotalAmount))
	}
	out := SalesSummary{Revenue: revenue.InexactFloat64(), Count: len(sales)}
	if len(sales) > 0 {
		out.Average = revenue.Div(decimal.NewFromInt(int64(len(sales)))).Round(2).InexactFloat64()
	}
	return out
}

// ProductSales is one row of the best sellers table.
type ProductSales struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// TopProducts ranks products by units sold, then revenue. The name is the
// one captured on the most recent sale line. limit <= 0 returns all rows.
func TopProducts(sales []models.Sale, limit int) []ProductSales {
	type acc struct {
		row     ProductSales
		revenue decimal.Decimal
	}
	byID := make(map[string]*acc)
	for _, s := range sales {
		for _, it := range s.Items {
			a, ok := byID[it.ProductID]
			if !ok {
				a = &acc{row: ProductSales{ProductID: it.ProductID}}
				byID[it.ProductID] = a
			}
			a.row.Name = it.Name
			a.row.Quantity += it.Quantity
			a.revenue = a.revenue.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	rows := make([]ProductSales, 0, len(byID))
	for _, a := range byID {
		a.row.Revenue = a.revenue.InexactFloat64()
		rows = append(rows, a.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Quantity != rows[j].Quantity {
			return rows[i].Quantity > rows[j].Quantity
		}
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// PaymentTotal is the count and amount settled with one payment method.
type PaymentTotal struct {
	Method models.PaymentMethod `json:"method"`
	Count  int                  `json:"count"`
	Amount float64              `json:"amount"`
}

// PaymentBreakdown always lists Cash, Card and Debt in that order.
func PaymentBreakdown(sales []models.Sale) []PaymentTotal {
	methods := []models.PaymentMethod{models.PaymentCash, models.PaymentCard, models.PaymentDebt}
	amounts := make(map[models.PaymentMethod]decimal.Decimal, len(methods))
	counts := make(map[models.PaymentMethod]int, len(methods))
	for _, s := range sales {
		amounts[s.PaymentMethod] = amounts[s.PaymentMethod].Add(decimal.NewFromFloat(s.TotalAmount))
		counts[s.PaymentMethod]++
	}
	out := make([]PaymentTotal, 0, len(methods))
	for _, m := range methods {
		out = append(out, PaymentTotal{Method: m, Count: counts[m], Amount: amounts[m].InexactFloat64()})
	}
	return out
}
