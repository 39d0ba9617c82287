package reports

import (
	"fmt"

	"smokedash/internal/models"

	"github.com/xuri/excelize/v2"
)

// Sheet names in an exported workbook.
const (
	SheetSales    = "Sales"
	SheetTop      = "Top Products"
	SheetPayments = "Payment Methods"
)

// ExportData is what ExportXLSX writes.
type ExportData struct {
	Sales    []models.Sale
	Top      []ProductSales
	Payments []PaymentTotal
	Currency string
}

// ExportXLSX writes sales, best sellers and the payment breakdown to a
// workbook at path, one sheet each.
func ExportXLSX(path string, data ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSales); err != nil {
		return err
	}
	for _, name := range []string{SheetTop, SheetPayments} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	amount := fmt.Sprintf("Amount (%s)", data.Currency)
	sales := [][]any{{"Invoice", "Date", "Method", "Customer", "Items", amount}}
	for _, s := range data.Sales {
		customer := ""
		if s.CustomerID != nil {
			customer = *s.CustomerID
		}
		units := 0
		for _, it := range s.Items {
			units += it.Quantity
		}
		sales = append(sales, []any{
			s.InvoiceNumber, s.Timestamp.Format(timeLayout), string(s.PaymentMethod), customer, units, s.TotalAmount,
		})
	}

	top := [][]any{{"Product", "ID", "Quantity", amount}}
	for _, p := range data.Top {
		top = append(top, []any{p.Name, p.ProductID, p.Quantity, p.Revenue})
	}

	payments := [][]any{{"Method", "Count", amount}}
	for _, p := range data.Payments {
		payments = append(payments, []any{string(p.Method), p.Count, p.Amount})
	}

	for sheet, rows := range map[string][][]any{SheetSales: sales, SheetTop: top, SheetPayments: payments} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}
