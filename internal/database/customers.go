package database

import (
	"strings"

	"smokedash/internal/models"
	"smokedash/internal/utils"

	"github.com/shopspring/decimal"
)

// CustomerInput is what the customer form collects.
type CustomerInput struct {
	Name    string
	Phone   string
	Address string
}

func (db *DB) ListCustomers(useCache bool) []models.Customer {
	db.mu.Lock()
	defer db.mu.Unlock()
	return readDoc[[]models.Customer](db, docCustomers, useCache)
}

func (db *DB) GetCustomer(id string) (*models.Customer, error) {
	customers := db.ListCustomers(true)
	if i := findCustomer(customers, id); i >= 0 {
		return &customers[i], nil
	}
	return nil, notFoundf("customer %s", id)
}

func findCustomer(customers []models.Customer, id string) int {
	for i, c := range customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// AddCustomer creates a customer with zero debt.
func (db *DB) AddCustomer(in CustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "N/A"
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	customers := readDoc[[]models.Customer](db, docCustomers, false)
	c := models.Customer{
		ID: utils.UniqueID(utils.TimestampID("CUST", db.now(), false), func(id string) bool {
			return findCustomer(customers, id) >= 0
		}),
		Name:      name,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Debt:      0,
		CreatedAt: db.timestamp(),
	}
	customers = append(customers, c)
	if err := writeList(db, docCustomers, customers); err != nil {
		return nil, err
	}
	db.appendAudit(debtEntry(c.ID, 0, 0, models.ReasonOpening, ""))
	return &c, nil
}

// UpdateCustomer changes contact details. The debt is not reachable from here.
func (db *DB) UpdateCustomer(id string, patch models.CustomerPatch) (*models.Customer, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	customers := readDoc[[]models.Customer](db, docCustomers, false)
	i := findCustomer(customers, id)
	if i < 0 {
		return nil, notFoundf("customer %s", id)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationf("customer name is required")
		}
		customers[i].Name = name
	}
	if patch.Phone != nil {
		customers[i].Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		customers[i].Address = strings.TrimSpace(*patch.Address)
	}
	if err := writeList(db, docCustomers, customers); err != nil {
		return nil, err
	}
	c := customers[i]
	return &c, nil
}

// DeleteCustomer refuses while the customer still owes (or is owed) money.
func (db *DB) DeleteCustomer(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	customers := readDoc[[]models.Customer](db, docCustomers, false)
	i := findCustomer(customers, id)
	if i < 0 {
		return notFoundf("customer %s", id)
	}
	if customers[i].Debt != 0 {
		return validationf("customer %s has an outstanding balance of %.2f", customers[i].Name, customers[i].Debt)
	}
	customers = append(customers[:i], customers[i+1:]...)
	return writeList(db, docCustomers, customers)
}

// AdjustDebt moves a customer's balance by delta. Positive means the
// customer owes more.
func (db *DB) AdjustDebt(id string, delta float64) (*models.Customer, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.applyDebt(id, delta, models.ReasonAdjust, "")
}

// CollectDebt records a repayment of amount, which must not exceed the debt.
func (db *DB) CollectDebt(id string, amount float64) (*models.Customer, error) {
	if amount <= 0 {
		return nil, validationf("collected amount must be positive")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	customers := readDoc[[]models.Customer](db, docCustomers, false)
	i := findCustomer(customers, id)
	if i < 0 {
		return nil, notFoundf("customer %s", id)
	}
	if decimal.NewFromFloat(amount).GreaterThan(decimal.NewFromFloat(customers[i].Debt)) {
		return nil, validationf("collected %.2f exceeds debt %.2f", amount, customers[i].Debt)
	}
	return db.applyDebt(id, -amount, models.ReasonCollection, "")
}

func (db *DB) applyDebt(id string, delta float64, reason, saleID string) (*models.Customer, error) {
	customers := readDoc[[]models.Customer](db, docCustomers, false)
	i := findCustomer(customers, id)
	if i < 0 {
		// An unusable document reads as empty; only a clean read proves absence.
		if _, err := Decode[[]models.Customer](db.store, docCustomers); err != nil {
			return nil, err
		}
		return nil, notFoundf("customer %s", id)
	}
	customers[i].Debt = decimal.NewFromFloat(customers[i].Debt).Add(decimal.NewFromFloat(delta)).InexactFloat64()
	if err := writeList(db, docCustomers, customers); err != nil {
		return nil, err
	}
	db.appendAudit(debtEntry(id, delta, customers[i].Debt, reason, saleID))
	c := customers[i]
	return &c, nil
}
