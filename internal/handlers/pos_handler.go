package handlers

import (
	"errors"
	"fmt"

	"smokedash/internal/database"
	"smokedash/internal/models"

	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned by Checkout when nothing was scanned.
var ErrEmptyCart = fmt.Errorf("%w: cart is empty", database.ErrValidation)

// SalesStore is the part of the repository the till needs.
type SalesStore interface {
	GetProduct(id string) (*models.Product, error)
	FindProductByBarcode(code string) (*models.Product, error)
	SearchProducts(query string) []models.Product
	RecordSale(in database.SaleInput) (*models.Sale, error)
}

// POS is the cart behind the sales screen.
type POS struct {
	store SalesStore
	cart  []models.SaleItem
}

func NewPOS(store SalesStore) *POS {
	return &POS{store: store}
}

// --- Search: the product picker ---
func (p *POS) Search(query string) []models.Product {
	return p.store.SearchProducts(query)
}

// --- Add: put a product in the cart ---
// Adding a product already in the cart raises that line's quantity. The
// cart never holds more of a product than is in stock.
func (p *POS) AddToCart(productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", database.ErrValidation)
	}

	// 1. Look up the current stock
	product, err := p.store.GetProduct(productID)
	if err != nil {
		return err
	}
	return p.add(*product, qty)
}

// --- Scan: barcode reader input ---
func (p *POS) Scan(barcode string) (*models.Product, error) {
	product, err := p.store.FindProductByBarcode(barcode)
	if err != nil {
		return nil, err
	}
	if err := p.add(*product, 1); err != nil {
		return nil, err
	}
	return product, nil
}

func (p *POS) add(product models.Product, qty int) error {
	// 2. Find the existing line, if any
	idx := -1
	for i, it := range p.cart {
		if it.ProductID == product.ID {
			idx = i
			break
		}
	}
	inCart := 0
	if idx >= 0 {
		inCart = p.cart[idx].Quantity
	}

	// 3. Refuse to sell what is not on the shelf
	if inCart+qty > product.Stock {
		return fmt.Errorf("%w: %s has %d in stock, %d requested", database.ErrInsufficientStock, product.Name, product.Stock, inCart+qty)
	}

	// 4. Update or append the line
	if idx >= 0 {
		p.cart[idx].Quantity += qty
		p.cart[idx].Total = database.LineTotal(p.cart[idx].Price, p.cart[idx].Quantity).InexactFloat64()
		return nil
	}
	p.cart = append(p.cart, models.SaleItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  qty,
		Price:     product.Price,
		Total:     database.LineTotal(product.Price, qty).InexactFloat64(),
	})
	return nil
}

// Remove drops the line for productID.
func (p *POS) Remove(productID string) error {
	for i, it := range p.cart {
		if it.ProductID == productID {
			p.cart = append(p.cart[:i], p.cart[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: product %s is not in the cart", database.ErrNotFound, productID)
}

func (p *POS) Clear() {
	p.cart = nil
}

// Cart returns a copy of the current lines.
func (p *POS) Cart() []models.SaleItem {
	out := make([]models.SaleItem, len(p.cart))
	copy(out, p.cart)
	return out
}

func (p *POS) Total() float64 {
	total := decimal.Zero
	for _, it := range p.cart {
		total = total.Add(database.LineTotal(it.Price, it.Quantity))
	}
	return total.InexactFloat64()
}

// --- Checkout: turn the cart into a sale ---
// The cart is emptied whenever a sale was written, including a partial
// failure, so the same cart cannot be charged twice.
func (p *POS) Checkout(method models.PaymentMethod, shiftID, customerID string) (*models.Sale, error) {
	if len(p.cart) == 0 {
		return nil, ErrEmptyCart
	}

	sale, err := p.store.RecordSale(database.SaleInput{
		Items:         p.Cart(),
		TotalAmount:   p.Total(),
		PaymentMethod: method,
		ShiftID:       shiftID,
		CustomerID:    customerID,
	})
	if sale != nil {
		p.Clear()
	}
	if err != nil && !errors.Is(err, database.ErrPartialFailure) {
		return nil, err
	}
	return sale, err
}
