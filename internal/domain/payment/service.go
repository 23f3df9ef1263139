package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/findbooks/api/internal/domain/order"
)

// methodGateway is the payment method recorded for verified gateway payments.
const methodGateway = "Razorpay"

var minorUnits = decimal.NewFromInt(100)

// ValidationError carries field-level messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment request: %d field error(s)", len(e.Fields))
}

// InitiatedOrder is a gateway order augmented with the gateway's public key ID.
type InitiatedOrder struct {
	GatewayOrder
	Key string `json:"key"`
}

// VerifyRequest holds the gateway callback data for payment verification.
type VerifyRequest struct {
	UserID           string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          string
}

// CODRequest holds the input for recording a cash-on-delivery payment.
type CODRequest struct {
	OrderID         string
	Method          string
	Status          string
	TotalAmount     decimal.Decimal
	TransactionType string
}

// Service implements the payment side of the order workflow: gateway order
// initiation, signature verification, and cash-on-delivery recording.
type Service struct {
	gateway  Gateway
	payments Repository
	orders   order.Repository
	secret   []byte
	now      func() time.Time
}

// NewService creates a payment Service. secret is the gateway's shared HMAC
// secret used for signature verification.
func NewService(gateway Gateway, payments Repository, orders order.Repository, secret []byte) *Service {
	return &Service{
		gateway:  gateway,
		payments: payments,
		orders:   orders,
		secret:   secret,
		now:      time.Now,
	}
}

// InitiateOrder converts the major-unit amount to minor units, generates a
// fresh opaque receipt, and creates an order with the gateway. No retry on
// gateway failure.
func (s *Service) InitiateOrder(ctx context.Context, amount decimal.Decimal) (*InitiatedOrder, error) {
	minor := amount.Mul(minorUnits).IntPart()
	receipt := uuid.NewString()

	g, err := s.gateway.CreateOrder(ctx, minor, "INR", receipt)
	if err != nil {
		return nil, errors.Wrap(err, "gateway create order")
	}

	return &InitiatedOrder{
		GatewayOrder: *g,
		Key:          s.gateway.KeyID(),
	}, nil
}

// VerifyAndRecord recomputes the HMAC-SHA256 signature over
// "{gatewayOrderID}|{gatewayPaymentID}" and compares it in constant time
// against the supplied hex signature. On match it persists a Completed credit
// Payment for the caller's most recent order total and returns it. On
// mismatch nothing is written and ErrInvalidSignature is returned.
func (s *Service) VerifyAndRecord(ctx context.Context, req VerifyRequest) (*Payment, error) {
	o, err := s.orders.GetLatestByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(req.GatewayOrderID + "|" + req.GatewayPaymentID))
	expected := mac.Sum(nil)

	supplied, err := hex.DecodeString(req.Signature)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare(expected, supplied) != 1 {
		return nil, ErrInvalidSignature
	}

	p := &Payment{
		ID:               uuid.NewString(),
		OrderID:          req.OrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Date:             s.now().UTC(),
		Method:           methodGateway,
		Status:           StatusCompleted,
		TotalAmount:      o.TotalAmount,
		TransactionType:  TypeCredit,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	return p, nil
}

// RecordCOD validates and persists a cash-on-delivery payment.
func (s *Service) RecordCOD(ctx context.Context, req CODRequest) (*Payment, error) {
	fields := map[string]string{}
	if req.OrderID == "" {
		fields["order_id"] = "Order ID is required"
	}
	if req.Method == "" {
		fields["payment_method"] = "Payment method is required"
	}
	if req.Status == "" {
		fields["payment_status"] = "Payment status is required"
	}
	if !req.TotalAmount.IsPositive() {
		fields["total_payment"] = "Total payment must be a positive number"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	p := &Payment{
		ID:              uuid.NewString(),
		OrderID:         req.OrderID,
		Date:            s.now().UTC(),
		Method:          req.Method,
		Status:          req.Status,
		TotalAmount:     req.TotalAmount,
		TransactionType: req.TransactionType,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create cod payment")
	}
	return p, nil
}

// CompleteCOD marks a payment as Completed. A missing payment is reported as
// ErrNotFound; completing an already-Completed payment is an idempotent no-op.
func (s *Service) CompleteCOD(ctx context.Context, paymentID string) error {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status == StatusCompleted {
		return nil
	}
	if err := s.payments.UpdateStatus(ctx, p.ID, StatusCompleted); err != nil {
		return errors.Wrap(err, "complete payment")
	}
	return nil
}

// List returns all payments with the ordering users' names resolved.
func (s *Service) List(ctx context.Context) ([]PayerRecord, error) {
	return s.payments.ListWithPayers(ctx)
}
