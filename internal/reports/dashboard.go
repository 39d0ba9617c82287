package reports

import (
	"fmt"
	"sort"

	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

// Dashboard holds the numbers on the home screen cards.
type Dashboard struct {
	TodayRevenue      float64 `json:"today_revenue"`
	TodaySales        int     `json:"today_sales"`
	StockUnits        int     `json:"stock_units"`
	Products          int     `json:"products"`
	CustomersWithDebt int     `json:"customers_with_debt"`
	OutstandingDebt   float64 `json:"outstanding_debt"`
}

// DashboardStats takes today's sales already filtered by the caller.
func DashboardStats(today []models.Sale, products []models.Product, customers []models.Customer) Dashboard {
	summary := Summary(today)
	d := Dashboard{
		TodayRevenue: summary.Revenue,
		TodaySales:   summary.Count,
		Products:     len(products),
	}
	for _, p := range products {
		if p.Stock > 0 {
			d.StockUnits += p.Stock
		}
	}
	debt := decimal.Zero
	for _, c := range customers {
		if c.Debt > 0 {
			d.CustomersWithDebt++
			debt = debt.Add(decimal.NewFromFloat(c.Debt))
		}
	}
	d.OutstandingDebt = debt.InexactFloat64()
	return d
}

// Alert kinds and priorities.
const (
	AlertLowStock = "low_stock"
	AlertHighDebt = "high_debt"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Alert is one notification for the operator.
type Alert struct {
	Kind     string  `json:"kind"`
	Priority string  `json:"priority"`
	EntityID string  `json:"entity_id"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Message  string  `json:"message"`
}

// StockAlerts flags products below threshold; an empty shelf is high priority.
func StockAlerts(products []models.Product, threshold int) []Alert {
	var out []Alert
	for _, p := range products {
		if p.Stock >= threshold {
			continue
		}
		priority := PriorityMedium
		if p.Stock <= 0 {
			priority = PriorityHigh
		}
		out = append(out, Alert{
			Kind:     AlertLowStock,
			Priority: priority,
			EntityID: p.ID,
			Name:     p.Name,
			Value:    float64(p.Stock),
			Message:  fmt.Sprintf("low stock: %s (%d left)", p.Name, p.Stock),
		})
	}
	return out
}

// DebtAlerts flags customers owing more than threshold.
func DebtAlerts(customers []models.Customer, threshold float64) []Alert {
	var out []Alert
	for _, c := range customers {
		if c.Debt <= threshold {
			continue
		}
		out = append(out, Alert{
			Kind:     AlertHighDebt,
			Priority: PriorityHigh,
			EntityID: c.ID,
			Name:     c.Name,
			Value:    c.Debt,
			Message:  fmt.Sprintf("high debt: %s (%.2f)", c.Name, c.Debt),
		})
	}
	return out
}

// AllAlerts merges stock and debt alerts, high priority first.
func AllAlerts(products []models.Product, customers []models.Customer, lowStock int, highDebt float64) []Alert {
	alerts := append(StockAlerts(products, lowStock), DebtAlerts(customers, highDebt)...)
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority == PriorityHigh && alerts[j].Priority != PriorityHigh
	})
	return alerts
}
