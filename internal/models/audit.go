package models

// AuditEntity names the balance an AuditLog entry moved.
type AuditEntity string

const (
	AuditStock AuditEntity = "stock"
	AuditDebt  AuditEntity = "debt"
)

// Reasons recorded against each ledger movement.
const (
	ReasonOpening     = "opening"
	ReasonEdit        = "edit"
	ReasonAdjust      = "adjust"
	ReasonSale        = "sale"
	ReasonSaleReverse = "sale_reversal"
	ReasonCollection  = "collection"
)

// AuditLog - one signed movement of a product's stock or a customer's debt.
// Replaying the log per entity must reproduce the stored balance; Balance
// is the value right after this movement.
type AuditLog struct {
	ID        string      `json:"id"`
	Entity    AuditEntity `json:"entity"`
	EntityID  string      `json:"entity_id"`
	Delta     float64     `json:"delta"`
	Balance   float64     `json:"balance"`
	Reason    string      `json:"reason"`
	SaleID    string      `json:"sale_id,omitempty"`
	CreatedAt Timestamp   `json:"created_at"`
}
