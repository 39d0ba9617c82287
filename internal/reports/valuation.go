package reports

import (
	"sort"

	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

const unbranded = "Unbranded"

// ValuationItem is a single row of the valuation table
type ValuationItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// BrandGroup is one table of the valuation report (e.g. "Marlboro")
type BrandGroup struct {
	Brand    string          `json:"brand"`
	Items    []ValuationItem `json:"items"`
	Subtotal float64         `json:"subtotal"`
}

// ValuationReport is the value of the stock on hand at selling price.
type ValuationReport struct {
	Groups     []BrandGroup `json:"groups"`
	GrandTotal float64      `json:"grand_total"`
	Units      int          `json:"units"`
}

// Valuation groups products by brand. Negative stock (oversold through a
// manual adjustment) counts as nothing on hand.
func Valuation(products []models.Product) ValuationReport {
	grouped := make(map[string]*BrandGroup)
	subtotals := make(map[string]decimal.Decimal)
	grand := decimal.Zero
	var report ValuationReport

	for _, p := range products {
		brand := p.Brand
		if brand == "" {
			brand = unbranded
		}
		if _, exists := grouped[brand]; !exists {
			grouped[brand] = &BrandGroup{Brand: brand, Items: []ValuationItem{}}
		}

		qty := p.Stock
		if qty < 0 {
			qty = 0
		}
		itemTotal := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(qty)))
		grouped[brand].Items = append(grouped[brand].Items, ValuationItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  qty,
			Price:     p.Price,
			Total:     itemTotal.InexactFloat64(),
		})
		subtotals[brand] = subtotals[brand].Add(itemTotal)
		grand = grand.Add(itemTotal)
		report.Units += qty
	}

	for brand, g := range grouped {
		g.Subtotal = subtotals[brand].InexactFloat64()
		report.Groups = append(report.Groups, *g)
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		return report.Groups[i].Brand < report.Groups[j].Brand
	})
	report.GrandTotal = grand.InexactFloat64()
	return report
}
