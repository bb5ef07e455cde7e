package database

import (
	"context"

	"github.com/google/uuid"
)

const customerColumns = `id, name, email, phone, password_hash, deleted_at, created_at, updated_at`

func scanCustomer(row interface{ Scan(...interface{}) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash,
		&c.DeletedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) GetCustomerByEmail(ctx context.Context, email string) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE email = $1 AND deleted_at IS NULL`,
		email,
	)
	return scanCustomer(row)
}

// GetCustomer treats soft-deleted customers as absent.
func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	return scanCustomer(row)
}

type CreateCustomerParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+customerColumns,
		arg.Name, arg.Email, arg.Phone, arg.PasswordHash,
	)
	return scanCustomer(row)
}

func (q *Queries) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (q *Queries) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE customers SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id`,
		id,
	).Scan(&out)
	return out, err
}

const adminColumns = `id, name, email, phone, password_hash, role, created_at, updated_at`

func scanAdmin(row interface{ Scan(...interface{}) error }) (Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash,
		&a.Role, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	row := q.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
	return scanAdmin(row)
}

func (q *Queries) GetAdmin(ctx context.Context, id uuid.UUID) (Admin, error) {
	row := q.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row)
}

type CreateAdminParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateAdmin(ctx context.Context, arg CreateAdminParams) (Admin, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO admins (name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+adminColumns,
		arg.Name, arg.Email, arg.Phone, arg.PasswordHash, arg.Role,
	)
	return scanAdmin(row)
}
