package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findbooks/api/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, user_id, items) VALUES ($1, $2, $3)`

	getCartByIDSQL = `SELECT id, user_id, items, created_at FROM carts WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Items are
// stored in a JSONB column.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create persists a new cart.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createCartSQL, c.ID, c.UserID, itemsJSON)
	if err != nil {
		return fmt.Errorf("creating cart %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a cart by its identifier.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying cart %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("querying cart %q: %w", id, err)
	}
	return &c, nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c         cart.Cart
		itemsJSON []byte
	)
	if err := row.Scan(&c.ID, &c.UserID, &itemsJSON, &c.CreatedAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return c, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	return c, nil
}
