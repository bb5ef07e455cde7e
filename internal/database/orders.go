package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, customer_id, delivery_type, customer_phone,
	subtotal, discount_amount, delivery_fee, total_amount, notes, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.DeliveryType, &o.CustomerPhone,
		&o.Subtotal, &o.DiscountAmount, &o.DeliveryFee, &o.TotalAmount,
		&o.Notes, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
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
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_id, delivery_type, customer_phone,
			subtotal, discount_amount, delivery_fee, total_amount, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.CustomerID, arg.DeliveryType, arg.CustomerPhone,
		arg.Subtotal, arg.DiscountAmount, arg.DeliveryFee, arg.TotalAmount,
		arg.Notes, arg.Status,
	)
	return scanOrder(row)
}

type GetOpenOrderForCustomerParams struct {
	CustomerID uuid.UUID
	Status     OrderStatus
}

// GetOpenOrderForCustomer finds the customer's order in the mutable status,
// if any. Used for the create-or-reuse draft lookup.
func (q *Queries) GetOpenOrderForCustomer(ctx context.Context, arg GetOpenOrderForCustomerParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1 AND status = $2
		ORDER BY created_at LIMIT 1`,
		arg.CustomerID, arg.Status,
	)
	return scanOrder(row)
}

type GetOrderForCustomerParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) GetOrderForCustomer(ctx context.Context, arg GetOrderForCustomerParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND customer_id = $2`,
		arg.ID, arg.CustomerID,
	)
	return scanOrder(row)
}

// GetOrderForCustomerForUpdate row-locks the order for the duration of the
// enclosing transaction so concurrent mutations of the same order serialize.
func (q *Queries) GetOrderForCustomerForUpdate(ctx context.Context, arg GetOrderForCustomerParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND customer_id = $2
		FOR UPDATE`,
		arg.ID, arg.CustomerID,
	)
	return scanOrder(row)
}

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1
		FOR UPDATE`,
		id,
	)
	return scanOrder(row)
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// ListOpenOrdersByCustomer returns the customer's visible orders
// (draft through delivered), newest first.
func (q *Queries) ListOpenOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1
		  AND status IN ('DRAFT', 'PENDING', 'ON_DELIVERY', 'DELIVERED')
		ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListOrdersAwaitingAction returns PENDING and CONFIRMED orders for the
// admin work queue, newest first.
func (q *Queries) ListOrdersAwaitingAction(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status IN ('PENDING', 'CONFIRMED')
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderTotalsParams struct {
	ID             uuid.UUID
	Subtotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	DeliveryFee    pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET subtotal = $2, discount_amount = $3, delivery_fee = $4, total_amount = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Subtotal, arg.DiscountAmount, arg.DeliveryFee, arg.TotalAmount,
	)
	return scanOrder(row)
}

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Status,
	)
	return scanOrder(row)
}

type DeleteDraftOrderParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Status     OrderStatus
}

// DeleteDraftOrder removes the order only while it is still in the mutable
// status; returns the number of rows deleted.
func (q *Queries) DeleteDraftOrder(ctx context.Context, arg DeleteDraftOrderParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM orders
		WHERE id = $1 AND customer_id = $2 AND status = $3`,
		arg.ID, arg.CustomerID, arg.Status,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
