package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// ErrInvalidStatus is returned when a string is not one of the four order statuses.
var ErrInvalidStatus = errors.New("invalid order status")

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// ParseStatus validates a raw string against the status enumeration.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// transitions is the allowed-transition table. Delivered and Cancelled are
// terminal. Repeating the current status is always permitted as a no-op.
var transitions = map[Status][]Status{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered, StatusCancelled},
}

// CanTransitionTo reports whether next is reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// LineItem is a (book, quantity) pair on an order or cart.
type LineItem struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// Order is a customer order populated from a cart at checkout.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	CartID      string          `json:"cart_id"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Repository defines persistence operations for orders.
//
// Finalize persists the given order state and flips every reseller listing
// referencing one of bookIDs to the reselling state in a single transaction,
// so a crash cannot leave the order updated but listings stale.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByCartID(ctx context.Context, cartID string) (*Order, error)
	GetLatestByUserID(ctx context.Context, userID string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Finalize(ctx context.Context, o *Order, bookIDs []string) error
}
