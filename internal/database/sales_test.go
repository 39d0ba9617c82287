package database

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smokedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashSale(productID string, qty int, price float64) SaleInput {
	return SaleInput{
		Items:         []models.SaleItem{{ProductID: productID, Quantity: qty, Price: price}},
		PaymentMethod: models.PaymentCash,
	}
}

func TestRecordSale_Scenarios(t *testing.T) {
	db := openTestDB(t)

	// 1. a product with a generated id
	p := mustAddProduct(t, db, "Marlboro Red", 20.0, 50)

	// 2. the first sale of the year
	first, err := db.RecordSale(cashSale(p.ID, 5, 20.0))
	require.NoError(t, err)
	assert.Equal(t, 100.0, first.TotalAmount)
	assert.Equal(t, "INV-2026-0001", first.InvoiceNumber)
	assert.Equal(t, "Marlboro Red", first.Items[0].Name)
	assert.Equal(t, 100.0, first.Items[0].Total)
	got, err := db.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.Stock)

	// 3. the second sale the same day
	second, err := db.RecordSale(cashSale(p.ID, 1, 20.0))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0002", second.InvoiceNumber)
	assert.NotEqual(t, first.ID, second.ID)

	// 4. a debt sale raises the customer's balance
	x := mustAddCustomer(t, db, "X")
	debtSale, err := db.RecordSale(SaleInput{
		Items:         []models.SaleItem{{ProductID: p.ID, Quantity: 2, Price: 25.0}},
		TotalAmount:   50.0,
		PaymentMethod: models.PaymentDebt,
		CustomerID:    x.ID,
	})
	require.NoError(t, err)
	cust, err := db.GetCustomer(x.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cust.Debt)
	got, _ = db.GetProduct(p.ID)
	assert.Equal(t, 42, got.Stock)

	// 5. deleting it restores both
	deleted, err := db.DeleteSale(debtSale.ID)
	require.NoError(t, err)
	assert.Equal(t, debtSale.InvoiceNumber, deleted.InvoiceNumber)
	cust, _ = db.GetCustomer(x.ID)
	assert.Equal(t, 0.0, cust.Debt)
	got, _ = db.GetProduct(p.ID)
	assert.Equal(t, 44, got.Stock)

	assert.Len(t, db.ListSales(false), 2)
}

func TestRecordSale_InvoiceNumbersIncrease(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 1, 1000)

	var numbers []string
	for i := 0; i < 12; i++ {
		s, err := db.RecordSale(cashSale(p.ID, 1, 1))
		require.NoError(t, err)
		numbers = append(numbers, s.InvoiceNumber)
	}
	for i, n := range numbers {
		assert.Equal(t, fmt.Sprintf("INV-2026-%04d", i+1), n)
	}
}

func TestRecordSale_InvoiceNotReusedAfterDelete(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 1, 100)

	_, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)
	last, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)
	_, err = db.DeleteSale(last.InvoiceNumber)
	require.NoError(t, err)

	next, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0003", next.InvoiceNumber)
}

func TestRecordSale_ToleratesLegacyInvoiceNumbers(t *testing.T) {
	dir := t.TempDir()
	legacy := `[
    {"id": "old-1", "invoice_number": "INV-2026-0041", "timestamp": "2026-01-02T10:00:00.000000", "items": [], "total_amount": 0, "payment_method": "Cash", "shift_id": null, "customer_id": null},
    {"id": "old-2", "invoice_number": "", "timestamp": "2026-01-02T10:00:01", "items": [], "total_amount": 0, "payment_method": "Cash", "shift_id": null, "customer_id": null},
    {"id": "old-3", "invoice_number": "INV-2026-broken", "timestamp": null, "items": [], "total_amount": 0, "payment_method": "Cash", "shift_id": null, "customer_id": null}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, docSales), []byte(legacy), 0o644))
	db := openTestDBAt(t, dir)
	p := mustAddProduct(t, db, "Kent", 1, 10)

	s, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0042", s.InvoiceNumber)
}

func TestRecordSale_Validation(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Marlboro Red", 20, 3)
	c := mustAddCustomer(t, db, "Ali")
	shift, err := db.OpenShift("cashier", 0)
	require.NoError(t, err)
	_, err = db.CloseShift(shift.ID, 0, "")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SaleInput
		want error
	}{
		{"empty cart", SaleInput{PaymentMethod: models.PaymentCash}, ErrValidation},
		{"unknown method", SaleInput{Items: cashSale(p.ID, 1, 20).Items, PaymentMethod: "Cheque"}, ErrValidation},
		{"unknown product", cashSale("missing", 1, 20), ErrNotFound},
		{"zero quantity", cashSale(p.ID, 0, 20), ErrValidation},
		{"negative price", cashSale(p.ID, 1, -1), ErrValidation},
		{"too many", cashSale(p.ID, 4, 20), ErrInsufficientStock},
		{"split lines over stock", SaleInput{
			Items:         []models.SaleItem{{ProductID: p.ID, Quantity: 2, Price: 20}, {ProductID: p.ID, Quantity: 2, Price: 20}},
			PaymentMethod: models.PaymentCash,
		}, ErrInsufficientStock},
		{"wrong total", SaleInput{Items: cashSale(p.ID, 1, 20).Items, TotalAmount: 25, PaymentMethod: models.PaymentCash}, ErrValidation},
		{"debt without customer", SaleInput{Items: cashSale(p.ID, 1, 20).Items, PaymentMethod: models.PaymentDebt}, ErrValidation},
		{"unknown customer", SaleInput{Items: cashSale(p.ID, 1, 20).Items, PaymentMethod: models.PaymentDebt, CustomerID: "CUST0"}, ErrNotFound},
		{"unknown shift", SaleInput{Items: cashSale(p.ID, 1, 20).Items, PaymentMethod: models.PaymentCash, ShiftID: "SHFT0"}, ErrNotFound},
		{"closed shift", SaleInput{Items: cashSale(p.ID, 1, 20).Items, PaymentMethod: models.PaymentCash, ShiftID: shift.ID}, ErrShiftClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.RecordSale(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, db.ListSales(false), "rejected sales leave no record")
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 3, got.Stock)
	cust, _ := db.GetCustomer(c.ID)
	assert.Equal(t, 0.0, cust.Debt)
	_, err = os.Stat(filepath.Join(db.Dir(), docCounters))
	assert.True(t, os.IsNotExist(err), "no invoice number was reserved")
}

func TestRecordSale_DecimalTotals(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Gum", 0.1, 100)

	s, err := db.RecordSale(SaleInput{
		Items:         []models.SaleItem{{ProductID: p.ID, Quantity: 3, Price: 0.1}},
		TotalAmount:   0.3,
		PaymentMethod: models.PaymentCard,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.TotalAmount)
	assert.Equal(t, 0.3, s.Items[0].Total)
}

func TestRecordSale_StockOfDeletedProductIsSkipped(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 1, 10)
	s, err := db.RecordSale(cashSale(p.ID, 2, 1))
	require.NoError(t, err)
	require.NoError(t, db.DeleteProduct(p.ID))

	_, err = db.DeleteSale(s.ID)
	require.NoError(t, err)
	assert.Empty(t, db.ListSales(false))
}

func TestDeleteSale_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.DeleteSale("INV-2026-9999")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.DeleteSale("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSale_DebtCustomerGone(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	c := mustAddCustomer(t, db, "Ali")
	s, err := db.RecordSale(SaleInput{
		Items:         []models.SaleItem{{ProductID: p.ID, Quantity: 1, Price: 10}},
		PaymentMethod: models.PaymentDebt,
		CustomerID:    c.ID,
	})
	require.NoError(t, err)

	// Clear the balance so the customer can be removed, then delete the sale.
	_, err = db.CollectDebt(c.ID, 10)
	require.NoError(t, err)
	require.NoError(t, db.DeleteCustomer(c.ID))

	_, err = db.DeleteSale(s.ID)
	require.NoError(t, err)
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)
}

func debtSale(productID, customerID string, qty int, price float64) SaleInput {
	return SaleInput{
		Items:         []models.SaleItem{{ProductID: productID, Quantity: qty, Price: price}},
		PaymentMethod: models.PaymentDebt,
		CustomerID:    customerID,
	}
}

func TestRecordSale_StockWriteFails(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	restore := failWrites(db, docProducts)

	s, err := db.RecordSale(cashSale(p.ID, 3, 10))
	restore()
	require.ErrorIs(t, err, ErrPartialFailure)
	assert.ErrorIs(t, err, errDiskFull)
	require.NotNil(t, s, "the recorded sale comes back with the error")

	stored, err := db.GetSale(s.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, s.ID, stored.ID)
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)

	assert.Equal(t, []string{FindingSaleMissingStock}, findingKinds(db.Reconcile()))
}

func TestRecordSale_DebtWriteFails(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	c := mustAddCustomer(t, db, "Ali")
	restore := failWrites(db, docCustomers)

	s, err := db.RecordSale(debtSale(p.ID, c.ID, 2, 10))
	restore()
	require.ErrorIs(t, err, ErrPartialFailure)
	require.NotNil(t, s)

	assert.Len(t, db.ListSales(false), 1)
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 8, got.Stock, "stock is written before debt")
	cust, _ := db.GetCustomer(c.ID)
	assert.Equal(t, 0.0, cust.Debt)

	assert.Equal(t, []string{FindingSaleMissingDebt}, findingKinds(db.Reconcile()))
}

func TestRecordSale_BothFollowUpWritesFail(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	c := mustAddCustomer(t, db, "Ali")
	restore := failWrites(db, docProducts, docCustomers)

	s, err := db.RecordSale(debtSale(p.ID, c.ID, 2, 10))
	restore()
	require.ErrorIs(t, err, ErrPartialFailure)
	require.NotNil(t, s)
	assert.Contains(t, err.Error(), "stock:")
	assert.Contains(t, err.Error(), "debt:")

	assert.Equal(t, []string{FindingSaleMissingStock, FindingSaleMissingDebt}, findingKinds(db.Reconcile()))
}

func TestRecordSale_FailedSaleWriteSkipsInvoiceNumber(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 1, 10)
	restore := failWrites(db, docSales)

	s, err := db.RecordSale(cashSale(p.ID, 1, 1))
	restore()
	require.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrPartialFailure)
	assert.Nil(t, s)
	assert.Empty(t, db.ListSales(false))
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)

	// The reserved number stays used; the gap is never filled.
	next, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0002", next.InvoiceNumber)
}

func TestDeleteSale_RetryAfterPartialFailure(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	c := mustAddCustomer(t, db, "Ali")
	s, err := db.RecordSale(debtSale(p.ID, c.ID, 3, 10))
	require.NoError(t, err)

	restore := failWrites(db, docCustomers)
	_, err = db.DeleteSale(s.ID)
	restore()
	require.ErrorIs(t, err, ErrPartialFailure)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, db.ListSales(false), 1, "the sale stays for a retry")
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)

	_, err = db.DeleteSale(s.ID)
	require.NoError(t, err)
	assert.Empty(t, db.ListSales(false))
	got, _ = db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock, "stock is restored once")
	cust, _ := db.GetCustomer(c.ID)
	assert.Equal(t, 0.0, cust.Debt)

	report := db.Reconcile()
	assert.Empty(t, report.Findings)
}

func TestDeleteSale_SkipsReversalsAlreadyInLedger(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	q := mustAddProduct(t, db, "Gum", 1, 5)
	c := mustAddCustomer(t, db, "Ali")
	s, err := db.RecordSale(SaleInput{
		Items: []models.SaleItem{
			{ProductID: p.ID, Quantity: 1, Price: 10},
			{ProductID: q.ID, Quantity: 2, Price: 1},
			{ProductID: p.ID, Quantity: 2, Price: 10},
		},
		PaymentMethod: models.PaymentDebt,
		CustomerID:    c.ID,
	})
	require.NoError(t, err)

	// An earlier attempt restored the stock and the debt, then stopped.
	_, err = db.applyStock([]stockChange{{productID: p.ID, delta: 3}, {productID: q.ID, delta: 2}}, models.ReasonSaleReverse, s.ID, true)
	require.NoError(t, err)
	_, err = db.applyDebt(c.ID, -s.TotalAmount, models.ReasonSaleReverse, s.ID)
	require.NoError(t, err)

	_, err = db.DeleteSale(s.InvoiceNumber)
	require.NoError(t, err)
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)
	got, _ = db.GetProduct(q.ID)
	assert.Equal(t, 5, got.Stock)
	cust, _ := db.GetCustomer(c.ID)
	assert.Equal(t, 0.0, cust.Debt)
	assert.Empty(t, db.Reconcile().Findings)
}

func TestDeleteSale_OneReversalPerProduct(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	s, err := db.RecordSale(SaleInput{
		Items: []models.SaleItem{
			{ProductID: p.ID, Quantity: 1, Price: 10},
			{ProductID: p.ID, Quantity: 2, Price: 10},
		},
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	_, err = db.DeleteSale(s.ID)
	require.NoError(t, err)

	var reversals []models.AuditLog
	for _, e := range db.AuditLog() {
		if e.Reason == models.ReasonSaleReverse {
			reversals = append(reversals, e)
		}
	}
	require.Len(t, reversals, 1)
	assert.Equal(t, 3.0, reversals[0].Delta)
	assert.Equal(t, 10.0, reversals[0].Balance)
}

func TestDeleteSale_CorruptCustomersKeepsSale(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 50, 10)
	c := mustAddCustomer(t, db, "Ali")
	s, err := db.RecordSale(debtSale(p.ID, c.ID, 1, 50))
	require.NoError(t, err)

	path := filepath.Join(db.Dir(), docCustomers)
	original, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(original, '}'), 0o644))

	_, err = db.DeleteSale(s.ID)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, db.ListSales(false), 1, "the sale is kept while its customer cannot be read")

	require.NoError(t, os.WriteFile(path, original, 0o644))
	_, err = db.DeleteSale(s.ID)
	require.NoError(t, err)
	cust, err := db.GetCustomer(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cust.Debt)
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)
	assert.Empty(t, db.Reconcile().Findings)
}

func TestDeleteSale_CorruptProductsKeepsSale(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	s, err := db.RecordSale(cashSale(p.ID, 4, 10))
	require.NoError(t, err)

	path := filepath.Join(db.Dir(), docProducts)
	original, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err = db.DeleteSale(s.ID)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, db.ListSales(false), 1)

	require.NoError(t, os.WriteFile(path, original, 0o644))
	_, err = db.DeleteSale(s.ID)
	require.NoError(t, err)
	got, _ := db.GetProduct(p.ID)
	assert.Equal(t, 10, got.Stock)
}

func TestGetSale_ByIDOrInvoice(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 1, 10)
	s, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)

	byID, err := db.GetSale(s.ID)
	require.NoError(t, err)
	byInvoice, err := db.GetSale(s.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, byID, byInvoice)
}

func TestSalesInRange(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 1, 10)
	_, err := db.RecordSale(cashSale(p.ID, 1, 1))
	require.NoError(t, err)

	day := time.Date(2026, 4, 17, 0, 0, 0, 0, time.Local)
	assert.Len(t, db.SalesInRange(day, day), 1)
	assert.Len(t, db.SalesInRange(day.AddDate(0, 0, -3), day.Add(23*time.Hour)), 1)
	assert.Empty(t, db.SalesInRange(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)))
	assert.Empty(t, db.SalesInRange(day.AddDate(0, 0, -2), day.AddDate(0, 0, -1)))
}

func TestSalesForShift(t *testing.T) {
	db := openTestDB(t)
	p := mustAddProduct(t, db, "Kent", 10, 10)
	shift, err := db.OpenShift("cashier", 100)
	require.NoError(t, err)

	in := cashSale(p.ID, 1, 10)
	in.ShiftID = shift.ID
	_, err = db.RecordSale(in)
	require.NoError(t, err)
	_, err = db.RecordSale(cashSale(p.ID, 1, 10))
	require.NoError(t, err)

	sales := db.SalesForShift(shift.ID)
	require.Len(t, sales, 1)
	assert.Equal(t, shift.ID, *sales[0].ShiftID)
}
