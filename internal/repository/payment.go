package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findbooks/api/internal/domain/payment"
)

const (
	createPaymentSQL = `INSERT INTO payments
		(id, order_id, gateway_payment_id, payment_date, method, status, total_amount, transaction_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getPaymentByIDSQL = `SELECT id, order_id, gateway_payment_id, payment_date, method, status, total_amount, transaction_type
		FROM payments WHERE id = $1`

	updatePaymentStatusSQL = `UPDATE payments SET status = $2 WHERE id = $1`

	listPaymentsWithPayersSQL = `SELECT p.id, p.order_id, p.gateway_payment_id, p.payment_date,
			p.method, p.status, p.total_amount, p.transaction_type,
			u.first_name, u.last_name
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		JOIN users u ON u.id = o.user_id
		ORDER BY p.payment_date DESC`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, createPaymentSQL,
		p.ID, p.OrderID, p.GatewayPaymentID, p.Date, p.Method, p.Status, p.TotalAmount, p.TransactionType,
	)
	if err != nil {
		return fmt.Errorf("creating payment %q: %w", p.ID, err)
	}
	return nil
}

// GetByID returns a payment by its identifier.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("querying payment %q: %w", id, err)
	}
	return &p, nil
}

// UpdateStatus overwrites a payment's status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, updatePaymentStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating payment %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrNotFound
	}
	return nil
}

// ListWithPayers returns all payments with the ordering user's name joined in.
func (r *PaymentRepository) ListWithPayers(ctx context.Context) ([]payment.PayerRecord, error) {
	rows, err := r.pool.Query(ctx, listPaymentsWithPayersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.PayerRecord, error) {
		var rec payment.PayerRecord
		err := row.Scan(
			&rec.ID, &rec.OrderID, &rec.GatewayPaymentID, &rec.Date,
			&rec.Method, &rec.Status, &rec.TotalAmount, &rec.TransactionType,
			&rec.PayerFirstName, &rec.PayerLastName,
		)
		return rec, err
	})
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.GatewayPaymentID, &p.Date,
		&p.Method, &p.Status, &p.TotalAmount, &p.TransactionType,
	)
	return p, err
}
