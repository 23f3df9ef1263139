// Package reseller holds the peer-to-peer resell listing aggregate. A listing
// offers a previously-purchased book for resale; its status lifecycle is
// independent of any order it later gets attached to.
package reseller

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// StatusSell marks a listing as sold through an order finalization.
const StatusSell = "Sell"

// ErrNotFound is returned when a listing does not exist (or an update
// modified zero rows).
var ErrNotFound = errors.New("reseller listing not found")

// Listing is a book offered for resale by a user.
type Listing struct {
	ID             string    `json:"id"`
	BookID         string    `json:"book_id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	DeliveryUserID string    `json:"delivery_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SellerRecord is a listing joined with the reselling user's name.
type SellerRecord struct {
	Listing
	SellerFirstName string `json:"seller_first_name"`
	SellerLastName  string `json:"seller_last_name"`
}

// Repository defines persistence operations for resell listings.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Listing, error)
	ListByUserID(ctx context.Context, userID string) ([]Listing, error)
	ListAll(ctx context.Context) ([]SellerRecord, error)
	Delete(ctx context.Context, id string) error

	// SetStatusAndHandler atomically updates a listing's status and stamps
	// the delivery handler. It returns the number of rows modified.
	SetStatusAndHandler(ctx context.Context, id, status, handlerUserID string) (int64, error)
}
