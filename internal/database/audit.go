package database

import (
	"smokedash/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func stockEntry(productID string, delta, balance int, reason, saleID string) models.AuditLog {
	return models.AuditLog{
		Entity: models.AuditStock, EntityID: productID,
		Delta: float64(delta), Balance: float64(balance),
		Reason: reason, SaleID: saleID,
	}
}

func debtEntry(customerID string, delta, balance float64, reason, saleID string) models.AuditLog {
	return models.AuditLog{
		Entity: models.AuditDebt, EntityID: customerID,
		Delta: delta, Balance: balance,
		Reason: reason, SaleID: saleID,
	}
}

// appendAudit records balance movements after the balance itself was saved.
// A failure here is logged rather than returned: the movement already
// happened, and Reconcile reports the gap.
//
// The first movement of a record that predates the ledger is preceded by an
// opening entry for the balance it had, so replaying stays exact.
func (db *DB) appendAudit(entries ...models.AuditLog) {
	if len(entries) == 0 {
		return
	}
	ledger := readDoc[[]models.AuditLog](db, docAudit, false)
	known := make(map[string]bool, len(ledger))
	for _, e := range ledger {
		known[string(e.Entity)+":"+e.EntityID] = true
	}

	now := db.timestamp()
	for _, e := range entries {
		key := string(e.Entity) + ":" + e.EntityID
		if !known[key] && e.Reason != models.ReasonOpening {
			ledger = append(ledger, models.AuditLog{
				ID:        uuid.NewString(),
				Entity:    e.Entity,
				EntityID:  e.EntityID,
				Delta:     e.Balance - e.Delta,
				Balance:   e.Balance - e.Delta,
				Reason:    models.ReasonOpening,
				CreatedAt: now,
			})
		}
		known[key] = true
		e.ID = uuid.NewString()
		e.CreatedAt = now
		ledger = append(ledger, e)
	}
	if err := writeList(db, docAudit, ledger); err != nil {
		db.log.WithFields(logrus.Fields{"entries": len(entries), "error": err}).Error("audit ledger not updated")
	}
}

// AuditLog returns the whole ledger, oldest first.
func (db *DB) AuditLog() []models.AuditLog {
	db.mu.Lock()
	defer db.mu.Unlock()
	return readDoc[[]models.AuditLog](db, docAudit, false)
}
