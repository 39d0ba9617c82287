package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PaymentMethod is how a sale was settled. Only Debt changes a customer's balance.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
	PaymentDebt PaymentMethod = "Debt"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDebt:
		return true
	}
	return false
}

// ShiftStatus - 'open' while the cashier is working, 'closed' after the Z report
type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"
)

// Product - The Inventory
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Barcode  string  `json:"barcode"`
	MinStock int     `json:"min_stock"`
}

// ProductPatch carries the fields an update may change. Nil means "leave as is".
type ProductPatch struct {
	Name     *string  `json:"name,omitempty"`
	Brand    *string  `json:"brand,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Stock    *int     `json:"stock,omitempty"`
	Barcode  *string  `json:"barcode,omitempty"`
	MinStock *int     `json:"min_stock,omitempty"`
}

// SaleItem - one cart line, with the price captured at the time of sale
type SaleItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// Sale - The Transaction Header
type Sale struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	Timestamp     Timestamp     `json:"timestamp"`
	Items         []SaleItem    `json:"items"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ShiftID       *string       `json:"shift_id"`
	CustomerID    *string       `json:"customer_id"`
}

// IsDebt reports whether the sale moved money onto a customer's balance.
func (s Sale) IsDebt() bool {
	return s.PaymentMethod == PaymentDebt && s.CustomerID != nil && *s.CustomerID != ""
}

// Customer - someone who can buy on credit
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Debt      float64   `json:"debt"`
	CreatedAt Timestamp `json:"created_at"`
}

// CustomerPatch deliberately has no Debt field: balances move through AdjustDebt only.
type CustomerPatch struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Shift - a cash drawer session owned by one cashier
type Shift struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	StartTime Timestamp   `json:"start_time"`
	EndTime   *Timestamp  `json:"end_time"`
	StartCash float64     `json:"start_cash"`
	EndCash   float64     `json:"end_cash"`
	Status    ShiftStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
}

// User - The person operating the till
type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash,omitempty"`
	Password     string   `json:"password,omitempty"` // legacy plaintext, upgraded on first login
	Role         Role     `json:"role"`
	FullName     string   `json:"full_name"`
	Phone        string   `json:"phone,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

// Public strips credential material before a user leaves the repository.
func (u User) Public() User {
	u.PasswordHash = ""
	u.Password = ""
	return u
}

// Settings - the singleton shop configuration document
type Settings struct {
	Theme     string  `json:"theme"`
	Currency  string  `json:"currency"`
	ShopName  string  `json:"shop_name"`
	Language  string  `json:"language"`
	LogoPath  *string `json:"logo_path,omitempty"`
	ShowLogo  *bool   `json:"show_logo,omitempty"`
	AutoPrint *bool   `json:"auto_print,omitempty"`
}

// DefaultSettings is what a fresh data directory starts with.
func DefaultSettings() Settings {
	return Settings{Theme: "dark", Currency: "LYD", ShopName: "SmokeDash", Language: "ar"}
}

// Timestamp is an ISO-8601 instant. Older files were written without a zone
// and with microseconds, so decoding accepts several layouts.
type Timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02T15:04:05.000000"

var timestampLayouts = []string{
	time.RFC3339Nano,
	timestampLayout,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NewTimestamp wraps t in local time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Local()}
}

// MarshalJSON writes the local wall-clock time the way the shop terminal shows it.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Local().Format(timestampLayout))
}

// UnmarshalJSON accepts null, empty strings and the layouts above.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range timestampLayouts {
		var parsed time.Time
		if layout == time.RFC3339Nano {
			parsed, err = time.Parse(layout, raw)
		} else {
			parsed, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("failed to parse timestamp %q: %w", raw, err)
}
