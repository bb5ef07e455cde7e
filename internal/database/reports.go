package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type GetSalesReportParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// GetSalesReportRow is one day of settled revenue. Only orders that made it
// past payment count (CONFIRMED onward, excluding CANCELLED and REFUNDED).
type GetSalesReportRow struct {
	Day           pgtype.Date
	OrderCount    int64
	GrossSales    string
	DiscountTotal string
	DeliveryFees  string
	NetSales      string
}

func (q *Queries) GetSalesReport(ctx context.Context, arg GetSalesReportParams) ([]GetSalesReportRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT date_trunc('day', o.created_at)::date AS day,
		       COUNT(*) AS order_count,
		       COALESCE(SUM(o.subtotal), 0)::text AS gross_sales,
		       COALESCE(SUM(o.discount_amount), 0)::text AS discount_total,
		       COALESCE(SUM(o.delivery_fee), 0)::text AS delivery_fees,
		       COALESCE(SUM(o.total_amount), 0)::text AS net_sales
		FROM orders o
		WHERE o.status IN ('CONFIRMED', 'ON_DELIVERY', 'DELIVERED')
		  AND ($1::date IS NULL OR o.created_at >= $1)
		  AND ($2::date IS NULL OR o.created_at < $2 + interval '1 day')
		GROUP BY day
		ORDER BY day`,
		arg.StartDate, arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []GetSalesReportRow
	for rows.Next() {
		var r GetSalesReportRow
		if err := rows.Scan(
			&r.Day, &r.OrderCount, &r.GrossSales, &r.DiscountTotal,
			&r.DeliveryFees, &r.NetSales,
		); err != nil {
			return nil, err
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

type GetTopProductsParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Limit     int32
}

type GetTopProductsRow struct {
	ProductID    pgtype.UUID
	ProductName  string
	QuantitySold int64
	Revenue      string
}

func (q *Queries) GetTopProducts(ctx context.Context, arg GetTopProductsParams) ([]GetTopProductsRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.product_id,
		       i.product_name,
		       COALESCE(SUM(i.quantity), 0) AS quantity_sold,
		       COALESCE(SUM(i.total_price), 0)::text AS revenue
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status IN ('CONFIRMED', 'ON_DELIVERY', 'DELIVERED')
		  AND ($1::date IS NULL OR o.created_at >= $1)
		  AND ($2::date IS NULL OR o.created_at < $2 + interval '1 day')
		GROUP BY i.product_id, i.product_name
		ORDER BY quantity_sold DESC, revenue DESC
		LIMIT $3`,
		arg.StartDate, arg.EndDate, arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []GetTopProductsRow
	for rows.Next() {
		var r GetTopProductsRow
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.QuantitySold, &r.Revenue); err != nil {
			return nil, err
		}
		report = append(report, r)
	}
	return report, rows.Err()
}
