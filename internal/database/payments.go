package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, amount, payment_method, payment_status,
	bank_name, account_number, account_name, transfer_proof_id, transfer_proof_url,
	completed_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
		&p.BankName, &p.AccountNumber, &p.AccountName, &p.TransferProofID,
		&p.TransferProofUrl, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type CreatePaymentParams struct {
	OrderID          uuid.UUID
	Amount           pgtype.Numeric
	PaymentMethod    string
	PaymentStatus    PaymentStatus
	BankName         pgtype.Text
	AccountNumber    pgtype.Text
	AccountName      pgtype.Text
	TransferProofID  string
	TransferProofUrl string
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, amount, payment_method, payment_status,
			bank_name, account_number, account_name, transfer_proof_id, transfer_proof_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentColumns,
		arg.OrderID, arg.Amount, arg.PaymentMethod, arg.PaymentStatus,
		arg.BankName, arg.AccountNumber, arg.AccountName,
		arg.TransferProofID, arg.TransferProofUrl,
	)
	return scanPayment(row)
}

type GetPaymentForOrderParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetPaymentForOrder(ctx context.Context, arg GetPaymentForOrderParams) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE id = $1 AND order_id = $2`,
		arg.ID, arg.OrderID,
	)
	return scanPayment(row)
}

type UpdatePaymentStatusParams struct {
	ID          uuid.UUID
	Status      PaymentStatus
	CompletedAt pgtype.Timestamptz
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE payments
		SET payment_status = $2, completed_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+paymentColumns,
		arg.ID, arg.Status, arg.CompletedAt,
	)
	return scanPayment(row)
}

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_id = $1
		ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
