package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderStatus mirrors the order_status enum type.
type OrderStatus string

const (
	OrderStatusDRAFT      OrderStatus = "DRAFT"
	OrderStatusPENDING    OrderStatus = "PENDING"
	OrderStatusCONFIRMED  OrderStatus = "CONFIRMED"
	OrderStatusONDELIVERY OrderStatus = "ON_DELIVERY"
	OrderStatusDELIVERED  OrderStatus = "DELIVERED"
	OrderStatusCANCELLED  OrderStatus = "CANCELLED"
	OrderStatusREFUNDED   OrderStatus = "REFUNDED"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

func (e OrderStatus) Value() (driver.Value, error) {
	return string(e), nil
}

// PaymentStatus mirrors the payment_status enum type.
type PaymentStatus string

const (
	PaymentStatusPENDING   PaymentStatus = "PENDING"
	PaymentStatusCOMPLETED PaymentStatus = "COMPLETED"
	PaymentStatusFAILED    PaymentStatus = "FAILED"
)

func (e *PaymentStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = PaymentStatus(s)
	case string:
		*e = PaymentStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for PaymentStatus: %T", src)
	}
	return nil
}

func (e PaymentStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type Customer struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	DeletedAt    pgtype.Timestamptz
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Admin struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID          uuid.UUID
	Sku         string
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Cost        pgtype.Numeric
	Stock       int32
	Category    pgtype.Text
	ImageUrl    pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Discount struct {
	ID              uuid.UUID
	Code            string
	Description     pgtype.Text
	IsActive        bool
	StartDate       time.Time
	EndDate         time.Time
	MinimumPurchase pgtype.Numeric
	DiscountValue   pgtype.Numeric
	MaximumDiscount pgtype.Numeric
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	CustomerID     uuid.UUID
	DeliveryType   string
	CustomerPhone  string
	Subtotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	DeliveryFee    pgtype.Numeric
	TotalAmount    pgtype.Numeric
	Notes          pgtype.Text
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	TotalPrice  pgtype.Numeric
	Notes       pgtype.Text
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderDiscount struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	DiscountID     uuid.UUID
	DiscountCode   string
	DiscountAmount pgtype.Numeric
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Payment struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	Amount           pgtype.Numeric
	PaymentMethod    string
	PaymentStatus    PaymentStatus
	BankName         pgtype.Text
	AccountNumber    pgtype.Text
	AccountName      pgtype.Text
	TransferProofID  string
	TransferProofUrl string
	CompletedAt      pgtype.Timestamptz
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderStatusHistory struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    OrderStatus
	Notes     pgtype.Text
	ChangedBy uuid.UUID
	CreatedAt time.Time
}
