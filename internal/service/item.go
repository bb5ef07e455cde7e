package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/enum"
)

// AddItemRequest is the validated input for adding a product to an order.
type AddItemRequest struct {
	CustomerID uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Quantity   int32
	Notes      string
}

// AddItem adds quantity of a product to a mutable order. An existing line
// for the same product merges quantities instead of creating a duplicate;
// the unit price is re-read from the catalog so merged lines never mix
// prices. Totals are recalculated in the same transaction, preserving any
// voucher already on the order.
func (s *OrderService) AddItem(ctx context.Context, req AddItemRequest) (*database.Order, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForCustomerForUpdate(ctx, database.GetOrderForCustomerParams{
		ID:         req.OrderID,
		CustomerID: req.CustomerID,
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

	product, err := store.GetProductForOrder(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	existing, err := store.GetOrderItemByProduct(ctx, database.GetOrderItemByProductParams{
		OrderID:   order.ID,
		ProductID: req.ProductID,
	})
	lineExists := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get order item: %w", err)
	}

	// The stock check covers the whole line, not just the increment, so a
	// merge cannot push the line past available stock.
	newQuantity := req.Quantity
	if lineExists {
		newQuantity += existing.Quantity
	}
	if product.Stock < newQuantity {
		return nil, ErrInsufficientStock
	}

	if s.opts.StockPolicy == enum.StockPolicyReserve {
		reserved, err := store.DecrementProductStock(ctx, database.DecrementProductStockParams{
			ID:       req.ProductID,
			Quantity: req.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if reserved == 0 {
			return nil, ErrInsufficientStock
		}
	}

	unitPrice := numericToDecimal(product.Price)
	linePrice := unitPrice.Mul(decimal.NewFromInt(int64(newQuantity)))

	historyNote := "Order item added"
	if lineExists {
		if _, err := store.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
			ID:         existing.ID,
			Quantity:   newQuantity,
			UnitPrice:  decimalToNumeric(unitPrice),
			TotalPrice: decimalToNumeric(linePrice),
			Notes:      textOrNull(req.Notes),
		}); err != nil {
			return nil, fmt.Errorf("update order item: %w", err)
		}
		historyNote = "Order item quantity updated"
	} else {
		if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:     order.ID,
			ProductID:   req.ProductID,
			ProductName: product.Name,
			Quantity:    newQuantity,
			UnitPrice:   decimalToNumeric(unitPrice),
			TotalPrice:  decimalToNumeric(linePrice),
			Notes:       textOrNull(req.Notes),
		}); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}

	voucherCode := ""
	snapshot, err := store.GetOrderDiscount(ctx, order.ID)
	if err == nil {
		voucherCode = snapshot.DiscountCode
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get voucher snapshot: %w", err)
	}

	updated, err := s.recalculate(ctx, store, order.ID, numericToDecimal(order.DeliveryFee), voucherCode)
	if err != nil {
		return nil, err
	}

	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID:   order.ID,
		Status:    order.Status,
		Notes:     textOrNull(historyNote),
		ChangedBy: req.CustomerID,
	}); err != nil {
		return nil, fmt.Errorf("create status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// OrderItems lists the lines of an order owned by the customer.
func (s *OrderService) OrderItems(ctx context.Context, customerID, orderID uuid.UUID) ([]database.OrderItem, error) {
	if _, err := s.store.GetOrderForCustomer(ctx, database.GetOrderForCustomerParams{
		ID:         orderID,
		CustomerID: customerID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return s.store.ListOrderItemsByOrder(ctx, orderID)
}
