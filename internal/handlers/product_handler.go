package handlers

import (
	"errors"
	"fmt"
	"strings"

	"smokedash/internal/database"
	"smokedash/internal/models"
	"smokedash/internal/reports"
)

// InventoryStore is the part of the repository the stock screen needs.
type InventoryStore interface {
	ListProducts(useCache bool) []models.Product
	AddProduct(p models.Product) (*models.Product, error)
	UpdateProduct(id string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(id string) error
	AdjustStock(id string, delta int) (*models.Product, error)
}

// ValidationError lists every problem with a product form at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid product: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return database.ErrValidation
}

// ValidateProduct checks a product form before it reaches the repository.
func ValidateProduct(p models.Product) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if p.MinStock < 0 {
		problems = append(problems, "minimum stock must not be negative")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Inventory manages products and their stock alerts.
type Inventory struct {
	store    InventoryStore
	lowStock int
}

func NewInventory(store InventoryStore, lowStock int) *Inventory {
	return &Inventory{store: store, lowStock: lowStock}
}

// --- GET: List all products ---
func (i *Inventory) List() []models.Product {
	return i.store.ListProducts(true)
}

// --- POST: Add a new product ---
func (i *Inventory) Add(p models.Product) (*models.Product, error) {
	if err := ValidateProduct(p); err != nil {
		return nil, err
	}
	return i.store.AddProduct(p)
}

// --- PUT: Update price, stock or details ---
func (i *Inventory) Update(id string, patch models.ProductPatch) (*models.Product, error) {
	var problems []string
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		problems = append(problems, "name is required")
	}
	if patch.Price != nil && *patch.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return i.store.UpdateProduct(id, patch)
}

func (i *Inventory) Delete(id string) error {
	return i.store.DeleteProduct(id)
}

// Adjust is a manual stock correction (delivery, breakage, count).
func (i *Inventory) Adjust(id string, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: adjustment must not be zero", database.ErrValidation)
	}
	return i.store.AdjustStock(id, delta)
}

// LowStockAlerts lists products under the configured threshold.
func (i *Inventory) LowStockAlerts() []reports.Alert {
	return reports.StockAlerts(i.store.ListProducts(true), i.lowStock)
}

// IsValidation reports whether err is a rejected form rather than a failure.
func IsValidation(err error) bool {
	return errors.Is(err, database.ErrValidation)
}
