package database

import (
	"fmt"
	"strings"

	"smokedash/internal/models"
	"smokedash/internal/utils"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ListProducts returns every product. Pass useCache=false to force a disk read.
func (db *DB) ListProducts(useCache bool) []models.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return readDoc[[]models.Product](db, docProducts, useCache)
}

func (db *DB) GetProduct(id string) (*models.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range readDoc[[]models.Product](db, docProducts, true) {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, notFoundf("product %s", id)
}

// FindProductByBarcode is what the scanner input uses.
func (db *DB) FindProductByBarcode(code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationf("barcode is empty")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range readDoc[[]models.Product](db, docProducts, true) {
		if p.Barcode == code {
			return &p, nil
		}
	}
	return nil, notFoundf("product with barcode %s", code)
}

// SearchProducts matches query against name, id and barcode ignoring case.
// Names are NFC-normalized first so composed and decomposed Arabic or
// accented input find the same product.
func (db *DB) SearchProducts(query string) []models.Product {
	products := db.ListProducts(true)
	needle := foldText(query)
	if needle == "" {
		return products
	}
	var out []models.Product
	for _, p := range products {
		if strings.Contains(foldText(p.Name), needle) ||
			strings.Contains(foldText(p.ID), needle) ||
			strings.Contains(foldText(p.Barcode), needle) {
			out = append(out, p)
		}
	}
	return out
}

func foldText(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// LowStockProducts returns products at or below their own min_stock, or at
// or below threshold when no min_stock is set.
func (db *DB) LowStockProducts(threshold int) []models.Product {
	var out []models.Product
	for _, p := range db.ListProducts(true) {
		limit := threshold
		if p.MinStock > 0 {
			limit = p.MinStock
		}
		if p.Stock <= limit {
			out = append(out, p)
		}
	}
	return out
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return validationf("product name is required")
	}
	if p.Price < 0 {
		return validationf("price must not be negative")
	}
	if p.Stock < 0 {
		return validationf("stock must not be negative")
	}
	if p.MinStock < 0 {
		return validationf("min stock must not be negative")
	}
	return nil
}

func barcodeTaken(products []models.Product, barcode, exceptID string) bool {
	if barcode == "" {
		return false
	}
	for _, p := range products {
		if p.ID != exceptID && p.Barcode == barcode {
			return true
		}
	}
	return false
}

// AddProduct assigns a timestamp id and stores the product.
func (db *DB) AddProduct(p models.Product) (*models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	products := readDoc[[]models.Product](db, docProducts, false)
	if barcodeTaken(products, p.Barcode, "") {
		return nil, fmt.Errorf("%w: barcode %s", ErrDuplicate, p.Barcode)
	}

	p.ID = utils.UniqueID(utils.TimestampID("", db.now(), false), func(id string) bool {
		for _, existing := range products {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	products = append(products, p)
	if err := writeList(db, docProducts, products); err != nil {
		return nil, err
	}
	db.appendAudit(stockEntry(p.ID, p.Stock, p.Stock, models.ReasonOpening, ""))
	return &p, nil
}

// UpdateProduct merges patch into the product. The id never changes.
func (db *DB) UpdateProduct(id string, patch models.ProductPatch) (*models.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	products := readDoc[[]models.Product](db, docProducts, false)
	idx := -1
	for i := range products {
		if products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFoundf("product %s", id)
	}

	updated := products[idx]
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Brand != nil {
		updated.Brand = *patch.Brand
	}
	if patch.Price != nil {
		updated.Price = *patch.Price
	}
	if patch.Stock != nil {
		updated.Stock = *patch.Stock
	}
	if patch.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*patch.Barcode)
	}
	if patch.MinStock != nil {
		updated.MinStock = *patch.MinStock
	}
	updated.ID = id

	if err := validateProduct(updated); err != nil {
		return nil, err
	}
	if barcodeTaken(products, updated.Barcode, id) {
		return nil, fmt.Errorf("%w: barcode %s", ErrDuplicate, updated.Barcode)
	}

	delta := updated.Stock - products[idx].Stock
	products[idx] = updated
	if err := writeList(db, docProducts, products); err != nil {
		return nil, err
	}
	if delta != 0 {
		db.appendAudit(stockEntry(id, delta, updated.Stock, models.ReasonEdit, ""))
	}
	return &updated, nil
}

// DeleteProduct removes the product. Old sales keep referencing its id.
func (db *DB) DeleteProduct(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	products := readDoc[[]models.Product](db, docProducts, false)
	kept := products[:0]
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return notFoundf("product %s", id)
	}
	return writeList(db, docProducts, kept)
}

// AdjustStock adds delta to the product's stock. There is no floor here;
// selling paths check availability before calling in.
func (db *DB) AdjustStock(id string, delta int) (*models.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	applied, err := db.applyStock([]stockChange{{productID: id, delta: delta}}, models.ReasonAdjust, "", true)
	if err != nil {
		return nil, err
	}
	return &applied[0], nil
}

type stockChange struct {
	productID string
	delta     int
}

// applyStock writes all changes with one products save, then logs them.
// Unknown products fail the whole batch when strict, otherwise they are
// skipped (a sale reversal for a product deleted since). An unusable
// products document fails the batch either way.
func (db *DB) applyStock(changes []stockChange, reason, saleID string, strict bool) ([]models.Product, error) {
	products := readDoc[[]models.Product](db, docProducts, false)
	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}

	var applied []models.Product
	var entries []models.AuditLog
	for _, c := range changes {
		i, ok := index[c.productID]
		if !ok {
			if _, err := Decode[[]models.Product](db.store, docProducts); err != nil {
				return nil, err
			}
			if strict {
				return nil, notFoundf("product %s", c.productID)
			}
			db.log.WithField("product_id", c.productID).Warn("stock change skipped, product no longer exists")
			continue
		}
		products[i].Stock += c.delta
		applied = append(applied, products[i])
		entries = append(entries, stockEntry(c.productID, c.delta, products[i].Stock, reason, saleID))
	}
	if len(entries) == 0 {
		return applied, nil
	}
	if err := writeList(db, docProducts, products); err != nil {
		return nil, err
	}
	db.appendAudit(entries...)
	return applied, nil
}
