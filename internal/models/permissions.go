package models

// Role - 'admin', 'manager', 'cashier'
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleDefaults[r]
	return ok
}

// Page keys a user can be granted access to.
const (
	PageDashboard = "dashboard"
	PagePOS       = "pos"
	PageInventory = "inventory"
	PageCustomers = "customers"
	PageUsers     = "users"
	PageReports   = "reports"
	PageSettings  = "settings"
	PageInvoices  = "invoices"
)

// AllPages lists every page in navigation order.
var AllPages = []string{
	PageDashboard, PagePOS, PageInventory, PageCustomers,
	PageUsers, PageReports, PageSettings, PageInvoices,
}

var roleDefaults = map[Role][]string{
	RoleAdmin:   AllPages,
	RoleManager: {PageDashboard, PagePOS, PageInventory, PageCustomers, PageReports},
	RoleCashier: {PagePOS, PageCustomers, PageInvoices},
}

// DefaultPermissions returns the pages a role gets when the user record has no explicit list.
func DefaultPermissions(role Role) []string {
	pages := roleDefaults[role]
	out := make([]string, len(pages))
	copy(out, pages)
	return out
}

// EffectivePermissions resolves legacy users without a permissions list to their role defaults.
func (u User) EffectivePermissions() []string {
	if len(u.Permissions) > 0 {
		out := make([]string, len(u.Permissions))
		copy(out, u.Permissions)
		return out
	}
	return DefaultPermissions(u.Role)
}

// CanAccess reports whether the user may open the given page.
func (u User) CanAccess(page string) bool {
	for _, p := range u.EffectivePermissions() {
		if p == page {
			return true
		}
	}
	return false
}

// KnownPage reports whether page is one of AllPages.
func KnownPage(page string) bool {
	for _, p := range AllPages {
		if p == page {
			return true
		}
	}
	return false
}
