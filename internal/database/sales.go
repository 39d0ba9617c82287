package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"smokedash/internal/models"
	"smokedash/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// totalTolerance is how far a caller-supplied total may drift from the
// sum of the lines before the sale is rejected.
var totalTolerance = decimal.RequireFromString("0.005")

// SaleInput is a checkout request. TotalAmount is optional; when set it
// must agree with the line totals.
type SaleInput struct {
	Items         []models.SaleItem
	TotalAmount   float64
	PaymentMethod models.PaymentMethod
	ShiftID       string
	CustomerID    string
}

// LineTotal is price times quantity in decimal arithmetic.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// ListSales returns every recorded sale, oldest first.
func (db *DB) ListSales(useCache bool) []models.Sale {
	db.mu.Lock()
	defer db.mu.Unlock()
	return readDoc[[]models.Sale](db, docSales, useCache)
}

// GetSale accepts either the sale id or its invoice number.
func (db *DB) GetSale(ref string) (*models.Sale, error) {
	sales := db.ListSales(true)
	if i := findSale(sales, ref); i >= 0 {
		return &sales[i], nil
	}
	return nil, notFoundf("sale %s", ref)
}

// findSale resolves a reference to an index. Ids win over invoice numbers
// so a reference can never match two different sales.
func findSale(sales []models.Sale, ref string) int {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1
	}
	for i, s := range sales {
		if s.ID == ref {
			return i
		}
	}
	for i, s := range sales {
		if s.InvoiceNumber == ref {
			return i
		}
	}
	return -1
}

// SalesInRange returns sales whose local calendar date falls within
// [from, to], both ends inclusive.
func (db *DB) SalesInRange(from, to time.Time) []models.Sale {
	start := dayStart(from)
	end := dayStart(to).AddDate(0, 0, 1)
	var out []models.Sale
	for _, s := range db.ListSales(true) {
		ts := s.Timestamp.Local()
		if !ts.Before(start) && ts.Before(end) {
			out = append(out, s)
		}
	}
	return out
}

func (db *DB) TodaysSales() []models.Sale {
	today := db.now()
	return db.SalesInRange(today, today)
}

// SalesForShift returns the sales attributed to a shift.
func (db *DB) SalesForShift(shiftID string) []models.Sale {
	var out []models.Sale
	for _, s := range db.ListSales(true) {
		if s.ShiftID != nil && *s.ShiftID == shiftID {
			out = append(out, s)
		}
	}
	return out
}

func dayStart(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// RecordSale validates the checkout, writes the sale with the next invoice
// number, and only then decrements stock and raises the customer's debt.
//
// If the sale was written but a follow-up write failed, the sale is
// returned together with an error wrapping ErrPartialFailure. The order
// means a crash leaves "sale recorded, stock not yet reduced", never the
// reverse.
func (db *DB) RecordSale(in SaleInput) (*models.Sale, error) {
	if len(in.Items) == 0 {
		return nil, validationf("cart is empty")
	}
	if !in.PaymentMethod.Valid() {
		return nil, validationf("unknown payment method %q", in.PaymentMethod)
	}
	customerID := strings.TrimSpace(in.CustomerID)
	shiftID := strings.TrimSpace(in.ShiftID)
	if in.PaymentMethod == models.PaymentDebt && customerID == "" {
		return nil, validationf("a debt sale needs a customer")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	products := readDoc[[]models.Product](db, docProducts, false)
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.SaleItem, 0, len(in.Items))
	needed := make(map[string]int)
	var order []string
	total := decimal.Zero
	for _, it := range in.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, notFoundf("product %s", it.ProductID)
		}
		if it.Quantity <= 0 {
			return nil, validationf("quantity for %s must be positive", p.Name)
		}
		if it.Price < 0 {
			return nil, validationf("price for %s must not be negative", p.Name)
		}
		if it.Name == "" {
			it.Name = p.Name
		}
		line := LineTotal(it.Price, it.Quantity)
		it.Total = line.InexactFloat64()
		total = total.Add(line)
		items = append(items, it)

		if _, seen := needed[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		needed[it.ProductID] += it.Quantity
	}
	for _, id := range order {
		if p := byID[id]; p.Stock < needed[id] {
			return nil, fmt.Errorf("%w: %s has %d, %d requested", ErrInsufficientStock, p.Name, p.Stock, needed[id])
		}
	}
	if in.TotalAmount != 0 && decimal.NewFromFloat(in.TotalAmount).Sub(total).Abs().GreaterThan(totalTolerance) {
		return nil, validationf("total %.2f does not match items %s", in.TotalAmount, total.StringFixed(2))
	}

	var sale models.Sale
	if customerID != "" {
		if findCustomer(readDoc[[]models.Customer](db, docCustomers, false), customerID) < 0 {
			return nil, notFoundf("customer %s", customerID)
		}
		sale.CustomerID = &customerID
	}
	if shiftID != "" {
		shifts := readDoc[[]models.Shift](db, docShifts, false)
		i := findShift(shifts, shiftID)
		if i < 0 {
			return nil, notFoundf("shift %s", shiftID)
		}
		if shifts[i].Status != models.ShiftOpen {
			return nil, fmt.Errorf("%w: %s", ErrShiftClosed, shiftID)
		}
		sale.ShiftID = &shiftID
	}

	sales := readDoc[[]models.Sale](db, docSales, false)
	now := db.now()
	invoice, err := db.reserveInvoiceNumber(sales, now.Year())
	if err != nil {
		return nil, err
	}
	sale.ID = utils.UniqueID(utils.TimestampID("", now, true), func(id string) bool {
		return findSale(sales, id) >= 0
	})
	sale.InvoiceNumber = invoice
	sale.Timestamp = models.NewTimestamp(now)
	sale.Items = items
	sale.TotalAmount = total.InexactFloat64()
	sale.PaymentMethod = in.PaymentMethod

	sales = append(sales, sale)
	if err := writeList(db, docSales, sales); err != nil {
		return nil, err
	}

	var failures []error
	changes := make([]stockChange, 0, len(order))
	for _, id := range order {
		changes = append(changes, stockChange{productID: id, delta: -needed[id]})
	}
	if _, err := db.applyStock(changes, models.ReasonSale, sale.ID, false); err != nil {
		failures = append(failures, fmt.Errorf("stock: %w", err))
	}
	if sale.IsDebt() {
		if _, err := db.applyDebt(*sale.CustomerID, sale.TotalAmount, models.ReasonSale, sale.ID); err != nil {
			failures = append(failures, fmt.Errorf("debt: %w", err))
		}
	}

	fields := logrus.Fields{"invoice_number": sale.InvoiceNumber, "total_amount": sale.TotalAmount, "payment_method": sale.PaymentMethod}
	if len(failures) > 0 {
		err := errors.Join(failures...)
		db.log.WithFields(fields).WithError(err).Error("sale recorded but side effects incomplete")
		return &sale, fmt.Errorf("%w: sale %s: %w", ErrPartialFailure, sale.InvoiceNumber, err)
	}
	db.log.WithFields(fields).Info("sale recorded")
	return &sale, nil
}

// DeleteSale removes a sale by id or invoice number after restoring the
// stock it took and the debt it added. Reversals are written before the
// record is removed, so a failure leaves the sale in place. Reversals the
// ledger already holds for the sale are not applied again on a retry.
func (db *DB) DeleteSale(ref string) (*models.Sale, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	sales := readDoc[[]models.Sale](db, docSales, false)
	idx := findSale(sales, ref)
	if idx < 0 {
		return nil, notFoundf("sale %s", ref)
	}
	sale := sales[idx]
	done := db.reversalsOf(sale.ID)

	quantities := make(map[string]int)
	var changes []stockChange
	for _, it := range sale.Items {
		if done[saleMark{sale.ID, models.AuditStock, it.ProductID, models.ReasonSaleReverse}] {
			continue
		}
		if _, seen := quantities[it.ProductID]; !seen {
			changes = append(changes, stockChange{productID: it.ProductID})
		}
		quantities[it.ProductID] += it.Quantity
	}
	for i := range changes {
		changes[i].delta = quantities[changes[i].productID]
	}
	if len(changes) > 0 {
		if _, err := db.applyStock(changes, models.ReasonSaleReverse, sale.ID, false); err != nil {
			return nil, fmt.Errorf("restore stock for %s: %w", sale.InvoiceNumber, err)
		}
	}

	if sale.IsDebt() && !done[saleMark{sale.ID, models.AuditDebt, *sale.CustomerID, models.ReasonSaleReverse}] {
		_, err := db.applyDebt(*sale.CustomerID, -sale.TotalAmount, models.ReasonSaleReverse, sale.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			db.log.WithField("customer_id", *sale.CustomerID).Warn("debt reversal skipped, customer no longer exists")
		case err != nil:
			return nil, fmt.Errorf("%w: stock restored but debt for %s was not: %w", ErrPartialFailure, sale.InvoiceNumber, err)
		}
	}

	sales = append(sales[:idx], sales[idx+1:]...)
	if err := writeList(db, docSales, sales); err != nil {
		return nil, fmt.Errorf("%w: effects of %s reversed but the sale was not removed: %w", ErrPartialFailure, sale.InvoiceNumber, err)
	}

	db.log.WithFields(logrus.Fields{"invoice_number": sale.InvoiceNumber, "total_amount": sale.TotalAmount}).Info("sale deleted")
	return &sale, nil
}

// reversalsOf lists the sale_reverse movements the ledger holds for a sale.
func (db *DB) reversalsOf(saleID string) map[saleMark]bool {
	done := make(map[saleMark]bool)
	for _, e := range readDoc[[]models.AuditLog](db, docAudit, false) {
		if e.SaleID == saleID && e.Reason == models.ReasonSaleReverse {
			done[saleMark{e.SaleID, e.Entity, e.EntityID, e.Reason}] = true
		}
	}
	return done
}
