package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findbooks/api/internal/domain/order"
	"github.com/findbooks/api/internal/domain/reseller"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, cart_id, items, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderByIDSQL = `SELECT id, user_id, cart_id, items, total_amount, status, created_at
		FROM orders WHERE id = $1`

	getOrderByCartSQL = `SELECT id, user_id, cart_id, items, total_amount, status, created_at
		FROM orders WHERE cart_id = $1 ORDER BY created_at DESC LIMIT 1`

	getLatestOrderSQL = `SELECT id, user_id, cart_id, items, total_amount, status, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	finalizeOrderSQL = `UPDATE orders SET items = $2, total_amount = $3, status = $4 WHERE id = $1`

	sellListingsSQL = `UPDATE resellers SET status = $1 WHERE book_id = ANY($2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are stored in a JSONB column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.CartID, itemsJSON, o.TotalAmount, o.Status,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDSQL, id)
}

// GetByCartID returns the order created for the given cart.
func (r *OrderRepository) GetByCartID(ctx context.Context, cartID string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByCartSQL, cartID)
}

// GetLatestByUserID returns the user's most recently created order.
func (r *OrderRepository) GetLatestByUserID(ctx context.Context, userID string) (*order.Order, error) {
	return r.getOne(ctx, getLatestOrderSQL, userID)
}

func (r *OrderRepository) getOne(ctx context.Context, sql, arg string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("querying order: %w", err)
	}
	return &o, nil
}

// UpdateStatus overwrites an order's status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Finalize persists the order's items, total, and status, and flips every
// reseller listing referencing one of bookIDs to the selling state. Both
// writes run in one transaction so a failure leaves neither applied.
func (r *OrderRepository) Finalize(ctx context.Context, o *order.Order, bookIDs []string) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, finalizeOrderSQL, o.ID, itemsJSON, o.TotalAmount, o.Status)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if len(bookIDs) > 0 {
		if _, err := tx.Exec(ctx, sellListingsSQL, reseller.StatusSell, bookIDs); err != nil {
			return fmt.Errorf("updating reseller listings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.CartID, &itemsJSON, &o.TotalAmount, &o.Status, &o.CreatedAt); err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}
