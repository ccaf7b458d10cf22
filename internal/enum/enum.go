package enum

// ── Storage keys (one JSON document each) ──

const (
	KeyMenuItems   = "menuItems"
	KeyCart        = "cart"
	KeySales       = "sales"
	KeyPaymentLink = "paymentLink"
)

// ── Top-level views ──

const (
	ViewOrdering = "ordering"
	ViewAdmin    = "admin"
)

// ── Live refresh events ──

const (
	EventMenuUpdated    = "menu.updated"
	EventCartUpdated    = "cart.updated"
	EventOrderCompleted = "order.completed"
)

// ── Order id prefixes ──

const (
	OrderPrefixSaved = "ORD"
	OrderPrefixCart  = "CART"
)
