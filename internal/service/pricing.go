package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tomoro-store/api/internal/database"
)

// recalculate rebuilds the money columns of an order from its current
// lines: subtotal is the sum of line totals, the voucher (if any) is
// revalidated against the new subtotal, and
// total = subtotal - discount + delivery fee. Must run inside the caller's
// transaction with the order row already locked.
//
// An empty voucherCode removes any existing snapshot. A non-empty code is
// validated fresh every time, so a voucher that fell below its minimum
// purchase (for example after quantities changed) surfaces as an error
// rather than a stale discount.
func (s *OrderService) recalculate(ctx context.Context, store Store, orderID uuid.UUID, deliveryFee decimal.Decimal, voucherCode string) (database.Order, error) {
	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list order items: %w", err)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(numericToDecimal(item.TotalPrice))
	}

	discountAmount := decimal.Zero
	if voucherCode != "" {
		voucher, amount, err := s.validateVoucher(ctx, store, voucherCode, subtotal)
		if err != nil {
			return database.Order{}, err
		}
		discountAmount = amount
		if _, err := store.UpsertOrderDiscount(ctx, database.UpsertOrderDiscountParams{
			OrderID:        orderID,
			DiscountID:     voucher.ID,
			DiscountCode:   voucher.Code,
			DiscountAmount: decimalToNumeric(amount),
		}); err != nil {
			return database.Order{}, fmt.Errorf("upsert voucher snapshot: %w", err)
		}
	} else {
		if err := store.DeleteOrderDiscount(ctx, orderID); err != nil {
			return database.Order{}, fmt.Errorf("delete voucher snapshot: %w", err)
		}
	}

	total := subtotal.Sub(discountAmount).Add(deliveryFee)
	if total.IsNegative() {
		return database.Order{}, ErrNegativeTotal
	}

	order, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:             orderID,
		Subtotal:       decimalToNumeric(subtotal),
		DiscountAmount: decimalToNumeric(discountAmount),
		DeliveryFee:    decimalToNumeric(deliveryFee),
		TotalAmount:    decimalToNumeric(total),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order totals: %w", err)
	}
	return order, nil
}

// validateVoucher checks the code against the active window and minimum
// purchase, and returns the discount amount: the fixed value capped first
// at the voucher's maximum discount, then at the subtotal.
func (s *OrderService) validateVoucher(ctx context.Context, store Store, code string, subtotal decimal.Decimal) (database.Discount, decimal.Decimal, error) {
	voucher, err := store.GetActiveDiscountByCode(ctx, database.GetActiveDiscountByCodeParams{
		Code: code,
		Now:  s.now(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Discount{}, decimal.Zero, ErrVoucherInvalid
		}
		return database.Discount{}, decimal.Zero, fmt.Errorf("get voucher: %w", err)
	}

	if subtotal.LessThan(numericToDecimal(voucher.MinimumPurchase)) {
		return database.Discount{}, decimal.Zero, ErrVoucherMinimum
	}

	amount := numericToDecimal(voucher.DiscountValue)
	if voucher.MaximumDiscount.Valid {
		if max := numericToDecimal(voucher.MaximumDiscount); amount.GreaterThan(max) {
			amount = max
		}
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return voucher, amount, nil
}

// ApplyVoucherRequest applies or clears a voucher on a mutable order.
type ApplyVoucherRequest struct {
	CustomerID  uuid.UUID
	OrderID     uuid.UUID
	VoucherCode string
}

// ApplyVoucher sets (or, with an empty code, removes) the order's voucher
// snapshot, recalculates totals, and appends the audit entry in one
// transaction.
func (s *OrderService) ApplyVoucher(ctx context.Context, req ApplyVoucherRequest) (*database.Order, error) {
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

	updated, err := s.recalculate(ctx, store, order.ID, numericToDecimal(order.DeliveryFee), req.VoucherCode)
	if err != nil {
		return nil, err
	}

	note := "Voucher removed"
	if req.VoucherCode != "" {
		note = fmt.Sprintf("Voucher %s applied", req.VoucherCode)
	}
	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID:   order.ID,
		Status:    updated.Status,
		Notes:     textOrNull(note),
		ChangedBy: req.CustomerID,
	}); err != nil {
		return nil, fmt.Errorf("create status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}
