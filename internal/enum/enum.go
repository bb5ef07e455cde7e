package enum

// ── State machines (enum typed in DB) ──

const (
	OrderStatusDraft      = "DRAFT"
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusOnDelivery = "ON_DELIVERY"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusRefunded   = "REFUNDED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// ── Configurable labels (CHECK constrained in DB) ──

const (
	DeliveryTypeDelivery = "DELIVERY"
	DeliveryTypePickup   = "PICKUP"
)

const (
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodQRIS         = "QRIS"
	PaymentMethodCOD          = "COD"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
)

// ── Stock policies (config only, no DB constraint) ──

const (
	StockPolicyCheck   = "check"
	StockPolicyReserve = "reserve"
)
