package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, product_id, product_name, quantity,
	unit_price, total_price, notes, created_at, updated_at`

func scanOrderItem(row interface{ Scan(...interface{}) error }) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity,
		&it.UnitPrice, &it.TotalPrice, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	TotalPrice  pgtype.Numeric
	Notes       pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.Quantity,
		arg.UnitPrice, arg.TotalPrice, arg.Notes,
	)
	return scanOrderItem(row)
}

type GetOrderItemByProductParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
}

func (q *Queries) GetOrderItemByProduct(ctx context.Context, arg GetOrderItemByProductParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1 AND product_id = $2`,
		arg.OrderID, arg.ProductID,
	)
	return scanOrderItem(row)
}

type UpdateOrderItemParams struct {
	ID         uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	TotalPrice pgtype.Numeric
	Notes      pgtype.Text
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE order_items
		SET quantity = $2, unit_price = $3, total_price = $4,
		    notes = COALESCE($5, notes), updated_at = now()
		WHERE id = $1
		RETURNING `+orderItemColumns,
		arg.ID, arg.Quantity, arg.UnitPrice, arg.TotalPrice, arg.Notes,
	)
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) CountOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = $1`, orderID).Scan(&count)
	return count, err
}
