package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tomoro-store/api/internal/database"
)

// AdminUpdateStatusRequest is the admin input for moving an order along
// its lifecycle.
type AdminUpdateStatusRequest struct {
	AdminID uuid.UUID
	OrderID uuid.UUID
	Status  string
	Notes   string
}

// adminTargets are the only statuses an admin may set directly. DRAFT and
// PENDING are customer-driven and never reachable through this path.
var adminTargets = map[database.OrderStatus]bool{
	database.OrderStatusCONFIRMED:  true,
	database.OrderStatusONDELIVERY: true,
	database.OrderStatusDELIVERED:  true,
	database.OrderStatusCANCELLED:  true,
	database.OrderStatusREFUNDED:   true,
}

// validateTransition enforces the lifecycle graph: terminal statuses admit
// no further changes, delivery starts only from CONFIRMED, delivery
// completes only from ON_DELIVERY, and a DELIVERED order cannot re-enter
// the delivery chain (only CANCELLED or REFUNDED remain open to it).
func validateTransition(from, to database.OrderStatus) error {
	if from == database.OrderStatusCANCELLED || from == database.OrderStatusREFUNDED {
		return ErrOrderClosed
	}
	switch to {
	case database.OrderStatusCONFIRMED:
		if from == database.OrderStatusDELIVERED {
			return ErrInvalidTransition
		}
	case database.OrderStatusONDELIVERY:
		if from != database.OrderStatusCONFIRMED {
			return ErrInvalidTransition
		}
	case database.OrderStatusDELIVERED:
		if from != database.OrderStatusONDELIVERY {
			return ErrInvalidTransition
		}
	}
	return nil
}

// historyNoteFor labels the audit entry for an admin-driven transition.
func historyNoteFor(to database.OrderStatus) string {
	switch to {
	case database.OrderStatusCONFIRMED:
		return "Order confirmed"
	case database.OrderStatusONDELIVERY:
		return "Order out for delivery"
	case database.OrderStatusDELIVERED:
		return "Order delivered"
	case database.OrderStatusCANCELLED:
		return "Order cancelled"
	case database.OrderStatusREFUNDED:
		return "Order refunded"
	}
	return "Order status updated"
}

// AdminUpdateStatus moves an order to the requested status after checking
// the transition graph, and appends the audit entry in the same
// transaction. Invalid transitions leave the order untouched.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, req AdminUpdateStatusRequest) (*database.Order, error) {
	target := database.OrderStatus(req.Status)
	if !adminTargets[target] {
		return nil, ErrStatusNotAllowed
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

	if err := validateTransition(order.Status, target); err != nil {
		return nil, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:     order.ID,
		Status: target,
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	note := req.Notes
	if note == "" {
		note = historyNoteFor(target)
	}
	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID:   order.ID,
		Status:    target,
		Notes:     textOrNull(note),
		ChangedBy: req.AdminID,
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
		ChangedBy:   req.AdminID,
	})
	return &updated, nil
}
