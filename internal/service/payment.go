package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/enum"
)

// RecordPaymentRequest is the validated input for recording a payment.
type RecordPaymentRequest struct {
	CustomerID       uuid.UUID
	OrderID          uuid.UUID
	PaymentMethod    string
	BankName         string
	AccountNumber    string
	AccountName      string
	TransferProofID  string
	TransferProofUrl string
}

// PaymentResult bundles the stored payment with the order it settled.
type PaymentResult struct {
	Payment database.Payment
	Order   database.Order
}

// RecordPayment stores a payment snapshot for a PENDING order and moves it
// to CONFIRMED. The payment amount is frozen from the order's total at this
// moment, so later catalog or voucher changes cannot alter what was charged.
func (s *OrderService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	switch req.PaymentMethod {
	case enum.PaymentMethodBankTransfer, enum.PaymentMethodQRIS, enum.PaymentMethodCOD:
	default:
		return nil, ErrInvalidPaymentMethod
	}
	if req.TransferProofID == "" || req.TransferProofUrl == "" {
		return nil, ErrMissingProof
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
	if order.Status != database.OrderStatusPENDING {
		return nil, ErrOrderNotPending
	}
	total := numericToDecimal(order.TotalAmount)
	if !total.IsPositive() {
		return nil, ErrNothingToPay
	}

	payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		OrderID:          order.ID,
		Amount:           order.TotalAmount,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    database.PaymentStatusPENDING,
		BankName:         textOrNull(req.BankName),
		AccountNumber:    textOrNull(req.AccountNumber),
		AccountName:      textOrNull(req.AccountName),
		TransferProofID:  req.TransferProofID,
		TransferProofUrl: req.TransferProofUrl,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:     order.ID,
		Status: database.OrderStatusCONFIRMED,
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID:   order.ID,
		Status:    database.OrderStatusCONFIRMED,
		Notes:     textOrNull("Order paid"),
		ChangedBy: req.CustomerID,
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
		ChangedBy:   req.CustomerID,
	})
	return &PaymentResult{Payment: payment, Order: updated}, nil
}

// UpdatePaymentStatusRequest is the admin input for settling a payment.
type UpdatePaymentStatusRequest struct {
	AdminID   uuid.UUID
	OrderID   uuid.UUID
	PaymentID uuid.UUID
	Status    string
}

// UpdatePaymentStatus moves a payment to COMPLETED or FAILED. Completing a
// payment stamps completed_at and confirms the order if it is still
// PENDING; a FAILED payment leaves the order untouched so the customer can
// retry.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, req UpdatePaymentStatusRequest) (*PaymentResult, error) {
	var target database.PaymentStatus
	switch req.Status {
	case enum.PaymentStatusCompleted:
		target = database.PaymentStatusCOMPLETED
	case enum.PaymentStatusFailed:
		target = database.PaymentStatusFAILED
	default:
		return nil, ErrInvalidPaymentStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if _, err := store.GetPaymentForOrder(ctx, database.GetPaymentForOrderParams{
		ID:      req.PaymentID,
		OrderID: req.OrderID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	completedAt := pgtype.Timestamptz{}
	if target == database.PaymentStatusCOMPLETED {
		completedAt = pgtype.Timestamptz{Time: s.now(), Valid: true}
	}
	payment, err := store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
		ID:          req.PaymentID,
		Status:      target,
		CompletedAt: completedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	if target == database.PaymentStatusCOMPLETED && order.Status == database.OrderStatusPENDING {
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     order.ID,
			Status: database.OrderStatusCONFIRMED,
		})
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
			OrderID:   order.ID,
			Status:    database.OrderStatusCONFIRMED,
			Notes:     textOrNull("Payment completed"),
			ChangedBy: req.AdminID,
		}); err != nil {
			return nil, fmt.Errorf("create status history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.publish(OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		ChangedBy:   req.AdminID,
	})
	return &PaymentResult{Payment: payment, Order: order}, nil
}
