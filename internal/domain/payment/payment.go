package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	// StatusCompleted marks a payment as fully settled.
	StatusCompleted = "Completed"

	// TypeCredit is an online gateway payment; TypeCOD is cash on delivery.
	TypeCredit = "credit"
	TypeCOD    = "cod"
)

var (
	// ErrNotFound is returned when a payment does not exist.
	ErrNotFound = errors.New("payment not found")

	// ErrInvalidSignature is returned when a gateway signature fails verification.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Payment records a settled or pending payment against an order.
type Payment struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Date             time.Time       `json:"payment_date"`
	Method           string          `json:"payment_method"`
	Status           string          `json:"payment_status"`
	TotalAmount      decimal.Decimal `json:"total_payment"`
	TransactionType  string          `json:"transaction_type"`
}

// PayerRecord is a payment joined with the name of the ordering user,
// for the payment history listing.
type PayerRecord struct {
	Payment
	PayerFirstName string `json:"payer_first_name"`
	PayerLastName  string `json:"payer_last_name"`
}

// Repository defines persistence operations for payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListWithPayers(ctx context.Context) ([]PayerRecord, error)
}

// GatewayOrder is an order created in the external payment processor's system.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the external payment processor client. One configured instance
// is constructed at startup and injected by reference.
type Gateway interface {
	// CreateOrder registers an order with the gateway. Amount is in minor
	// currency units.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)

	// KeyID returns the gateway's public key identifier for client checkout.
	KeyID() string
}
