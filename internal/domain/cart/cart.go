// Package cart holds the cart aggregate. Carts are read-only in the order
// workflow: they are consumed to populate order line items at finalization.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a cart does not exist.
var ErrNotFound = errors.New("cart not found")

// Item is a (book, quantity) pair in a cart.
type Item struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// Cart is a user's shopping cart.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines persistence operations for carts.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	GetByID(ctx context.Context, id string) (*Cart, error)
}
