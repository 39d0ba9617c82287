package handlers

import (
	"io"
	"sort"
	"time"

	"smokedash/internal/database"
	"smokedash/internal/models"
	"smokedash/internal/reports"
)

// ReportStore is the read side of the repository the reports screen needs.
type ReportStore interface {
	SalesInRange(from, to time.Time) []models.Sale
	TodaysSales() []models.Sale
	ListProducts(useCache bool) []models.Product
	ListCustomers(useCache bool) []models.Customer
	GetShift(id string) (*models.Shift, error)
	SalesForShift(shiftID string) []models.Sale
	GetSettings(useCache bool) models.Settings
}

// ReportData defines the shape of the sales report
type ReportData struct {
	From        time.Time              `json:"from"`
	To          time.Time              `json:"to"`
	Summary     reports.SalesSummary   `json:"summary"`
	TopSelling  []reports.ProductSales `json:"top_selling"`
	Payments    []reports.PaymentTotal `json:"payments"`
	RecentSales []models.Sale          `json:"recent_sales"`
}

const (
	topSellingLimit = 5
	recentLimit     = 10
)

// Reports serves the reports and dashboard screens.
type Reports struct {
	store    ReportStore
	lowStock int
	highDebt float64
}

func NewReports(store ReportStore, lowStock int, highDebt float64) *Reports {
	return &Reports{store: store, lowStock: lowStock, highDebt: highDebt}
}

// --- Sales report for a date range ---
func (r *Reports) Sales(from, to time.Time) ReportData {
	sales := r.store.SalesInRange(from, to)
	data := ReportData{
		From:       from,
		To:         to,
		Summary:    reports.Summary(sales),
		TopSelling: reports.TopProducts(sales, topSellingLimit),
		Payments:   reports.PaymentBreakdown(sales),
	}

	// Last sales first
	recent := make([]models.Sale, len(sales))
	copy(recent, sales)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp.Time)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	data.RecentSales = recent
	return data
}

// --- Stock valuation ---
func (r *Reports) Valuation() reports.ValuationReport {
	return reports.Valuation(r.store.ListProducts(true))
}

func (r *Reports) Dashboard() reports.Dashboard {
	return reports.DashboardStats(r.store.TodaysSales(), r.store.ListProducts(true), r.store.ListCustomers(true))
}

func (r *Reports) Alerts() []reports.Alert {
	return reports.AllAlerts(r.store.ListProducts(true), r.store.ListCustomers(true), r.lowStock, r.highDebt)
}

// --- Z report ---
func (r *Reports) Shift(id string) (reports.ShiftReconciliation, error) {
	shift, err := r.store.GetShift(id)
	if err != nil {
		return reports.ShiftReconciliation{}, err
	}
	return reports.ReconcileShift(*shift, r.store.SalesForShift(shift.ID)), nil
}

// RenderShift writes the text Z report using the shop's settings.
func (r *Reports) RenderShift(w io.Writer, id string) error {
	rec, err := r.Shift(id)
	if err != nil {
		return err
	}
	return reports.RenderShiftReport(w, rec, r.store.GetSettings(true))
}

// Export writes the range's sales report to an xlsx workbook.
func (r *Reports) Export(path string, from, to time.Time) error {
	sales := r.store.SalesInRange(from, to)
	return reports.ExportXLSX(path, reports.ExportData{
		Sales:    sales,
		Top:      reports.TopProducts(sales, 0),
		Payments: reports.PaymentBreakdown(sales),
		Currency: r.store.GetSettings(true).Currency,
	})
}

var _ ReportStore = (*database.DB)(nil)
