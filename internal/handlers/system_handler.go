package handlers

import (
	"smokedash/internal/database"
)

// SystemStore exposes the data directory health checks.
type SystemStore interface {
	Dir() string
	Reconcile() database.ReconcileReport
}

// SystemStatus feeds the status screen and the startup check.
type SystemStatus struct {
	DataDir     string                   `json:"data_dir"`
	Consistent  bool                     `json:"consistent"`
	Reconcile   database.ReconcileReport `json:"reconcile"`
	Divergences int                      `json:"divergences"`
}

type System struct {
	store SystemStore
}

func NewSystem(store SystemStore) *System {
	return &System{store: store}
}

// Status replays the audit ledger and reports what diverged.
func (s *System) Status() SystemStatus {
	report := s.store.Reconcile()
	status := SystemStatus{
		DataDir:    s.store.Dir(),
		Consistent: report.Clean(),
		Reconcile:  report,
	}
	for _, f := range report.Findings {
		if f.Kind != database.FindingUnverifiable {
			status.Divergences++
		}
	}
	return status
}

var (
	_ SalesStore     = (*database.DB)(nil)
	_ InventoryStore = (*database.DB)(nil)
	_ Authenticator  = (*database.DB)(nil)
	_ SystemStore    = (*database.DB)(nil)
)
