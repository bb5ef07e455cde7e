package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/enum"
)

const maxDraftCreateAttempts = 2

// Errors returned by the order service. Handlers map these to HTTP codes.
var (
	// validation
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidDeliveryType  = errors.New("invalid delivery_type")
	ErrInvalidDeliveryFee   = errors.New("invalid delivery_fee")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidPaymentStatus = errors.New("invalid payment_status")
	ErrMissingProof         = errors.New("transfer proof is required")

	// not found
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrPaymentNotFound  = errors.New("payment not found")

	// state conflicts
	ErrOrderNotMutable = errors.New("order can no longer be modified")
	ErrOrderNotPending = errors.New("order is not awaiting payment")
	ErrOrderClosed     = errors.New("order is in a terminal status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusNotAllowed  = errors.New("status not allowed for admin update")

	// business rules
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVoucherInvalid    = errors.New("voucher not valid, inactive, or expired")
	ErrVoucherMinimum    = errors.New("minimum purchase not met for voucher")
	ErrNothingToPay      = errors.New("order total must be greater than zero")

	// integrity
	ErrNegativeTotal = errors.New("total amount must not be negative")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the DB methods the order workflow needs.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOpenOrderForCustomer(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	GetOrderForCustomerForUpdate(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOpenOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]database.Order, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	DeleteDraftOrder(ctx context.Context, arg database.DeleteDraftOrderParams) (int64, error)

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItemByProduct(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CountOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error)

	GetProductForOrder(ctx context.Context, id uuid.UUID) (database.GetProductForOrderRow, error)
	DecrementProductStock(ctx context.Context, arg database.DecrementProductStockParams) (int64, error)

	GetActiveDiscountByCode(ctx context.Context, arg database.GetActiveDiscountByCodeParams) (database.Discount, error)
	UpsertOrderDiscount(ctx context.Context, arg database.UpsertOrderDiscountParams) (database.OrderDiscount, error)
	DeleteOrderDiscount(ctx context.Context, orderID uuid.UUID) error
	GetOrderDiscount(ctx context.Context, orderID uuid.UUID) (database.OrderDiscount, error)

	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	GetPaymentForOrder(ctx context.Context, arg database.GetPaymentForOrderParams) (database.Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)

	CreateStatusHistory(ctx context.Context, arg database.CreateStatusHistoryParams) (database.OrderStatusHistory, error)
	ListCustomerStatusHistory(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error)
}

// NewStore creates a Store from a DBTX (pool or tx), so the service can
// bind store instances to transactions.
type NewStore func(db database.DBTX) Store

// OrderEvent describes a committed status change, for live dashboards.
type OrderEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Status      string    `json:"status"`
	ChangedBy   uuid.UUID `json:"changed_by"`
}

// EventPublisher receives order events after their transaction commits.
type EventPublisher interface {
	PublishOrderEvent(evt OrderEvent)
}

// Options configure lifecycle variants of the workflow.
type Options struct {
	// UseDraftStage keeps a distinct DRAFT status ahead of PENDING.
	// When false, new orders start directly in PENDING.
	UseDraftStage bool
	// StockPolicy is enum.StockPolicyCheck or enum.StockPolicyReserve.
	StockPolicy string
}

// OrderService owns the order lifecycle: draft creation and reuse, item
// mutation, pricing recalculation, checkout, payment recording, and the
// admin-guarded status transitions. Every mutating operation runs as one
// transaction and appends exactly one status-history row.
type OrderService struct {
	pool     TxBeginner
	store    Store
	newStore NewStore
	opts     Options
	events   EventPublisher
	now      func() time.Time
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(pool TxBeginner, store Store, newStore NewStore, opts Options, events EventPublisher) *OrderService {
	if opts.StockPolicy == "" {
		opts.StockPolicy = enum.StockPolicyCheck
	}
	return &OrderService{
		pool:     pool,
		store:    store,
		newStore: newStore,
		opts:     opts,
		events:   events,
		now:      time.Now,
	}
}

// mutableStatus is the only status in which items may change.
func (s *OrderService) mutableStatus() database.OrderStatus {
	if s.opts.UseDraftStage {
		return database.OrderStatusDRAFT
	}
	return database.OrderStatusPENDING
}

func (s *OrderService) publish(evt OrderEvent) {
	if s.events != nil {
		s.events.PublishOrderEvent(evt)
	}
}

// --- Draft creation / reuse ---

// CreateDraftRequest is the validated input for creating a draft order.
type CreateDraftRequest struct {
	CustomerID   uuid.UUID
	DeliveryType string
	Notes        string
	DeliveryFee  string
}

// DraftResult is the draft order plus whether an existing one was reused.
type DraftResult struct {
	Order  database.Order
	Reused bool
}

// CreateOrReuseDraft returns the customer's existing mutable order if one
// exists, otherwise creates a new one. The partial unique index on
// (customer_id) for the mutable status backs this under concurrency: a
// losing creator retries once and picks up the winner's draft.
func (s *OrderService) CreateOrReuseDraft(ctx context.Context, req CreateDraftRequest) (*DraftResult, error) {
	deliveryType := req.DeliveryType
	if deliveryType == "" {
		deliveryType = enum.DeliveryTypeDelivery
	}
	if deliveryType != enum.DeliveryTypeDelivery && deliveryType != enum.DeliveryTypePickup {
		return nil, ErrInvalidDeliveryType
	}

	fee := decimal.Zero
	if req.DeliveryFee != "" {
		var err error
		fee, err = decimal.NewFromString(req.DeliveryFee)
		if err != nil || fee.IsNegative() {
			return nil, ErrInvalidDeliveryFee
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxDraftCreateAttempts; attempt++ {
		result, err := s.createDraftTx(ctx, req, deliveryType, fee)
		if err == nil {
			return result, nil
		}
		if isDraftConflict(err) {
			// Concurrent creator won the unique index; re-lookup finds theirs.
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) createDraftTx(ctx context.Context, req CreateDraftRequest, deliveryType string, fee decimal.Decimal) (*DraftResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	existing, err := store.GetOpenOrderForCustomer(ctx, database.GetOpenOrderForCustomerParams{
		CustomerID: req.CustomerID,
		Status:     s.mutableStatus(),
	})
	if err == nil {
		return &DraftResult{Order: existing, Reused: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup open order: %w", err)
	}

	customer, err := store.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	phone := customer.Phone
	if phone == "" {
		phone = "-"
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:    s.newOrderNumber(),
		CustomerID:     req.CustomerID,
		DeliveryType:   deliveryType,
		CustomerPhone:  phone,
		Subtotal:       decimalToNumeric(decimal.Zero),
		DiscountAmount: decimalToNumeric(decimal.Zero),
		DeliveryFee:    decimalToNumeric(fee),
		TotalAmount:    decimalToNumeric(fee),
		Notes:          textOrNull(req.Notes),
		Status:         s.mutableStatus(),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID:   order.ID,
		Status:    order.Status,
		Notes:     textOrNull("Draft order created"),
		ChangedBy: req.CustomerID,
	}); err != nil {
		return nil, fmt.Errorf("create status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.publish(OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		ChangedBy:   req.CustomerID,
	})
	return &DraftResult{Order: order, Reused: false}, nil
}

// isDraftConflict reports a unique violation of the one-draft-per-customer
// partial index (pgconn error code 23505).
func isDraftConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_customer_draft_key"
	}
	return false
}

func (s *OrderService) newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%s", s.now().UnixMilli(), uuid.NewString()[:6])
}

// --- Reads ---

// ListOpenOrders returns the customer's draft-through-delivered orders.
func (s *OrderService) ListOpenOrders(ctx context.Context, customerID uuid.UUID) ([]database.Order, error) {
	return s.store.ListOpenOrdersByCustomer(ctx, customerID)
}

// StatusHistory returns the customer's confirmation-relevant history
// entries (CONFIRMED, CANCELLED, REFUNDED).
func (s *OrderService) StatusHistory(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error) {
	return s.store.ListCustomerStatusHistory(ctx, customerID)
}

// --- Draft deletion ---

// DeleteDraft removes the order, permitted only while it is still in the
// mutable status and owned by the caller.
func (s *OrderService) DeleteDraft(ctx context.Context, customerID, orderID uuid.UUID) error {
	deleted, err := s.store.DeleteDraftOrder(ctx, database.DeleteDraftOrderParams{
		ID:         orderID,
		CustomerID: customerID,
		Status:     s.mutableStatus(),
	})
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if deleted == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// --- Checkout ---

// Checkout recalculates totals (preserving any applied voucher snapshot)
// and moves the order out of the mutable stage into PENDING. Requires at
// least one item.
func (s *OrderService) Checkout(ctx context.Context, customerID, orderID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForCustomerForUpdate(ctx, database.GetOrderForCustomerParams{
		ID:         orderID,
		CustomerID: customerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != s.mutableStatus() {
		return nil, ErrOrderNotMutable
	}

	count, err := store.CountOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("count order items: %w", err)
	}
	if count == 0 {
		return nil, ErrEmptyOrder
	}

	// Recalculate with the voucher already applied to this order, if any.
	voucherCode := ""
	snapshot, err := store.GetOrderDiscount(ctx, order.ID)
	if err == nil {
		voucherCode = snapshot.DiscountCode
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get voucher snapshot: %w", err)
	}

	if _, err := s.recalculate(ctx, store, order.ID, numericToDecimal(order.DeliveryFee), voucherCode); err != nil {
		return nil, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:     order.ID,
		Status: database.OrderStatusPENDING,
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID:   order.ID,
		Status:    database.OrderStatusPENDING,
		Notes:     textOrNull("Checkout: order submitted for payment"),
		ChangedBy: customerID,
	}); err != nil {
		return nil, fmt.Errorf("create status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.publish(OrderEvent{
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		CustomerID:  updated.CustomerID,
		Status:      string(updated.Status),
		ChangedBy:   customerID,
	})
	return &updated, nil
}

// --- Helpers ---

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
