package database

import (
	"fmt"
	"strconv"
	"strings"

	"smokedash/internal/models"
)

// InvoicePrefix is the year scope of invoice numbers, "INV-2026-".
func InvoicePrefix(year int) string {
	return fmt.Sprintf("INV-%d-", year)
}

// InvoiceSequence extracts the numeric suffix of an invoice number issued
// in year. Numbers from other years or with a malformed suffix report false.
func InvoiceSequence(invoiceNumber string, year int) (int, bool) {
	prefix := InvoicePrefix(year)
	if !strings.HasPrefix(invoiceNumber, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(invoiceNumber, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextInvoiceNumber is one past the highest sequence seen for the year,
// either on a stored sale or in the issued high-water mark. A year with no
// invoices starts at 0001.
func NextInvoiceNumber(sales []models.Sale, year, issued int) string {
	last := issued
	for _, s := range sales {
		if n, ok := InvoiceSequence(s.InvoiceNumber, year); ok && n > last {
			last = n
		}
	}
	return fmt.Sprintf("%s%04d", InvoicePrefix(year), last+1)
}

func invoiceCounterKey(year int) string {
	return "invoice:" + strconv.Itoa(year)
}

// reserveInvoiceNumber computes the next number and records it as issued
// before the sale is written, so deleting the newest sale never frees its
// number for reuse.
func (db *DB) reserveInvoiceNumber(sales []models.Sale, year int) (string, error) {
	counters := readDoc[map[string]int](db, docCounters, false)
	if counters == nil {
		counters = make(map[string]int)
	}
	key := invoiceCounterKey(year)
	number := NextInvoiceNumber(sales, year, counters[key])
	seq, _ := InvoiceSequence(number, year)
	counters[key] = seq
	if err := writeDoc(db, docCounters, counters); err != nil {
		return "", err
	}
	return number, nil
}
