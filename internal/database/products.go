package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, sku, name, description, price, cost, stock, category,
	image_url, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Sku, &p.Name, &p.Description, &p.Price, &p.Cost, &p.Stock,
		&p.Category, &p.ImageUrl, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetProductForOrderRow carries the fields the order workflow snapshots.
type GetProductForOrderRow struct {
	ID    uuid.UUID
	Name  string
	Price pgtype.Numeric
	Stock int32
}

func (q *Queries) GetProductForOrder(ctx context.Context, id uuid.UUID) (GetProductForOrderRow, error) {
	var r GetProductForOrderRow
	err := q.db.QueryRow(ctx, `
		SELECT id, name, price, stock FROM products
		WHERE id = $1 AND is_active = true`,
		id,
	).Scan(&r.ID, &r.Name, &r.Price, &r.Stock)
	return r, err
}

type DecrementProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// DecrementProductStock reserves stock for an order line; returns the number
// of rows updated (zero when stock would go negative).
func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`,
		arg.ID, arg.Quantity,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active = true
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

type CreateProductParams struct {
	Sku         string
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Cost        pgtype.Numeric
	Stock       int32
	Category    pgtype.Text
	ImageUrl    pgtype.Text
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (sku, name, description, price, cost, stock, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		arg.Sku, arg.Name, arg.Description, arg.Price, arg.Cost,
		arg.Stock, arg.Category, arg.ImageUrl,
	)
	return scanProduct(row)
}

type UpdateProductParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Stock       int32
	Category    pgtype.Text
	ImageUrl    pgtype.Text
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5,
		    category = $6, image_url = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Stock,
		arg.Category, arg.ImageUrl,
	)
	return scanProduct(row)
}

// DeactivateProduct soft-removes a product from the catalog.
func (q *Queries) DeactivateProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE products SET is_active = false, updated_at = now()
		WHERE id = $1
		RETURNING id`,
		id,
	).Scan(&out)
	return out, err
}
