package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const discountColumns = `id, code, description, is_active, start_date, end_date,
	minimum_purchase, discount_value, maximum_discount, created_at, updated_at`

func scanDiscount(row interface{ Scan(...interface{}) error }) (Discount, error) {
	var d Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.Description, &d.IsActive, &d.StartDate, &d.EndDate,
		&d.MinimumPurchase, &d.DiscountValue, &d.MaximumDiscount, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

type GetActiveDiscountByCodeParams struct {
	Code string
	Now  time.Time
}

// GetActiveDiscountByCode matches code, active flag, and validity window.
func (q *Queries) GetActiveDiscountByCode(ctx context.Context, arg GetActiveDiscountByCodeParams) (Discount, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+discountColumns+` FROM discounts
		WHERE code = $1 AND is_active = true AND start_date <= $2 AND end_date >= $2`,
		arg.Code, arg.Now,
	)
	return scanDiscount(row)
}

type CreateDiscountParams struct {
	Code            string
	Description     pgtype.Text
	IsActive        bool
	StartDate       time.Time
	EndDate         time.Time
	MinimumPurchase pgtype.Numeric
	DiscountValue   pgtype.Numeric
	MaximumDiscount pgtype.Numeric
}

func (q *Queries) CreateDiscount(ctx context.Context, arg CreateDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO discounts (code, description, is_active, start_date, end_date,
			minimum_purchase, discount_value, maximum_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+discountColumns,
		arg.Code, arg.Description, arg.IsActive, arg.StartDate, arg.EndDate,
		arg.MinimumPurchase, arg.DiscountValue, arg.MaximumDiscount,
	)
	return scanDiscount(row)
}

func (q *Queries) ListDiscounts(ctx context.Context) ([]Discount, error) {
	rows, err := q.db.Query(ctx, `SELECT `+discountColumns+` FROM discounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discounts []Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}

const orderDiscountColumns = `id, order_id, discount_id, discount_code, discount_amount, created_at, updated_at`

type UpsertOrderDiscountParams struct {
	OrderID        uuid.UUID
	DiscountID     uuid.UUID
	DiscountCode   string
	DiscountAmount pgtype.Numeric
}

// UpsertOrderDiscount creates or overwrites the order's voucher snapshot.
// order_discounts is unique on order_id so ON CONFLICT handles the overwrite.
func (q *Queries) UpsertOrderDiscount(ctx context.Context, arg UpsertOrderDiscountParams) (OrderDiscount, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_discounts (order_id, discount_id, discount_code, discount_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO UPDATE
		SET discount_id = EXCLUDED.discount_id,
		    discount_code = EXCLUDED.discount_code,
		    discount_amount = EXCLUDED.discount_amount,
		    updated_at = now()
		RETURNING `+orderDiscountColumns,
		arg.OrderID, arg.DiscountID, arg.DiscountCode, arg.DiscountAmount,
	)
	var od OrderDiscount
	err := row.Scan(&od.ID, &od.OrderID, &od.DiscountID, &od.DiscountCode,
		&od.DiscountAmount, &od.CreatedAt, &od.UpdatedAt)
	return od, err
}

// DeleteOrderDiscount is idempotent: deleting an absent snapshot is not an error.
func (q *Queries) DeleteOrderDiscount(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_discounts WHERE order_id = $1`, orderID)
	return err
}

func (q *Queries) GetOrderDiscount(ctx context.Context, orderID uuid.UUID) (OrderDiscount, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderDiscountColumns+` FROM order_discounts WHERE order_id = $1`,
		orderID,
	)
	var od OrderDiscount
	err := row.Scan(&od.ID, &od.OrderID, &od.DiscountID, &od.DiscountCode,
		&od.DiscountAmount, &od.CreatedAt, &od.UpdatedAt)
	return od, err
}
