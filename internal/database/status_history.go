package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateStatusHistoryParams struct {
	OrderID   uuid.UUID
	Status    OrderStatus
	Notes     pgtype.Text
	ChangedBy uuid.UUID
}

// CreateStatusHistory appends one audit row. History rows are never
// updated or deleted.
func (q *Queries) CreateStatusHistory(ctx context.Context, arg CreateStatusHistoryParams) (OrderStatusHistory, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, changed_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_id, status, notes, changed_by, created_at`,
		arg.OrderID, arg.Status, arg.Notes, arg.ChangedBy,
	)
	var h OrderStatusHistory
	err := row.Scan(&h.ID, &h.OrderID, &h.Status, &h.Notes, &h.ChangedBy, &h.CreatedAt)
	return h, err
}

func (q *Queries) ListStatusHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderStatusHistory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, status, notes, changed_by, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OrderStatusHistory
	for rows.Next() {
		var h OrderStatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Notes, &h.ChangedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// CustomerHistoryRow is a history entry joined with a summary of its order.
type CustomerHistoryRow struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Status         OrderStatus
	Notes          pgtype.Text
	ChangedBy      uuid.UUID
	CreatedAt      time.Time
	OrderNumber    string
	OrderStatus    OrderStatus
	TotalAmount    pgtype.Numeric
	DiscountAmount pgtype.Numeric
	DeliveryFee    pgtype.Numeric
	OrderCreatedAt time.Time
}

// ListCustomerStatusHistory returns the customer's confirmation-relevant
// history entries (CONFIRMED, CANCELLED, REFUNDED), newest first.
func (q *Queries) ListCustomerStatusHistory(ctx context.Context, customerID uuid.UUID) ([]CustomerHistoryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT h.id, h.order_id, h.status, h.notes, h.changed_by, h.created_at,
		       o.order_number, o.status, o.total_amount, o.discount_amount, o.delivery_fee, o.created_at
		FROM order_status_history h
		JOIN orders o ON o.id = h.order_id
		WHERE o.customer_id = $1
		  AND h.status IN ('CONFIRMED', 'CANCELLED', 'REFUNDED')
		ORDER BY h.created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CustomerHistoryRow
	for rows.Next() {
		var r CustomerHistoryRow
		if err := rows.Scan(
			&r.ID, &r.OrderID, &r.Status, &r.Notes, &r.ChangedBy, &r.CreatedAt,
			&r.OrderNumber, &r.OrderStatus, &r.TotalAmount, &r.DiscountAmount,
			&r.DeliveryFee, &r.OrderCreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, r)
	}
	return entries, rows.Err()
}
