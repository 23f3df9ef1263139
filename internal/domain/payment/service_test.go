package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findbooks/api/internal/domain/order"
)

// --- Mock implementations ---

type mockGateway struct {
	lastAmount   int64
	lastCurrency string
	receipts     []string
	err          error
}

func (m *mockGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastAmount = amount
	m.lastCurrency = currency
	m.receipts = append(m.receipts, receipt)
	return &GatewayOrder{
		ID:       "order_gw1",
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (m *mockGateway) KeyID() string { return "rzp_test_key" }

type mockPaymentRepo struct {
	byID    map[string]*Payment
	created []*Payment
	updated map[string]string
}

func newPaymentRepo(payments ...*Payment) *mockPaymentRepo {
	m := &mockPaymentRepo{
		byID:    make(map[string]*Payment),
		updated: make(map[string]string),
	}
	for _, p := range payments {
		m.byID[p.ID] = p
	}
	return m
}

func (m *mockPaymentRepo) Create(_ context.Context, p *Payment) error {
	m.byID[p.ID] = p
	m.created = append(m.created, p)
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, id, status string) error {
	p, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	m.updated[id] = status
	return nil
}

func (m *mockPaymentRepo) ListWithPayers(_ context.Context) ([]PayerRecord, error) {
	return nil, nil
}

type mockOrderRepo struct {
	latest *order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, _ *order.Order) error   { return nil }
func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _ order.Status) error {
	return nil
}
func (m *mockOrderRepo) Finalize(_ context.Context, _ *order.Order, _ []string) error { return nil }

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) GetByCartID(_ context.Context, _ string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) GetLatestByUserID(_ context.Context, _ string) (*order.Order, error) {
	if m.latest == nil {
		return nil, order.ErrNotFound
	}
	return m.latest, nil
}

// --- Helpers ---

const testSecret = "gw-secret"

func newTestService(gw Gateway, payments Repository, orders order.Repository) *Service {
	svc := NewService(gw, payments, orders, []byte(testSecret))
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func signFor(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// --- Tests ---

func TestInitiateOrder_ConvertsToMinorUnits(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(gw, newPaymentRepo(), &mockOrderRepo{})

	initiated, err := svc.InitiateOrder(context.Background(), decimal.RequireFromString("499.99"))
	require.NoError(t, err)

	assert.Equal(t, int64(49999), gw.lastAmount)
	assert.Equal(t, "INR", gw.lastCurrency)
	assert.Equal(t, "rzp_test_key", initiated.Key)
	assert.Equal(t, "order_gw1", initiated.ID)
}

func TestInitiateOrder_FreshReceiptPerCall(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(gw, newPaymentRepo(), &mockOrderRepo{})

	for i := 0; i < 3; i++ {
		_, err := svc.InitiateOrder(context.Background(), decimal.NewFromInt(100))
		require.NoError(t, err)
	}

	require.Len(t, gw.receipts, 3)
	assert.NotEqual(t, gw.receipts[0], gw.receipts[1])
	assert.NotEqual(t, gw.receipts[1], gw.receipts[2])
}

func TestVerifyAndRecord_ValidSignature(t *testing.T) {
	total := decimal.RequireFromString("750.00")
	payments := newPaymentRepo()
	orders := &mockOrderRepo{latest: &order.Order{ID: "o1", UserID: "u1", TotalAmount: total}}
	svc := newTestService(&mockGateway{}, payments, orders)

	p, err := svc.VerifyAndRecord(context.Background(), VerifyRequest{
		UserID:           "u1",
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        signFor("order_gw1", "pay_1"),
		OrderID:          "o1",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, TypeCredit, p.TransactionType)
	assert.Equal(t, "o1", p.OrderID)
	assert.Equal(t, "pay_1", p.GatewayPaymentID)
	assert.True(t, total.Equal(p.TotalAmount), "payment records the order's total")
	require.Len(t, payments.created, 1)
}

func TestVerifyAndRecord_RejectsTamperedSignature(t *testing.T) {
	payments := newPaymentRepo()
	orders := &mockOrderRepo{latest: &order.Order{ID: "o1", UserID: "u1"}}
	svc := newTestService(&mockGateway{}, payments, orders)

	sig := signFor("order_gw1", "pay_1")

	// Flip one hex digit.
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	for _, bad := range []string{string(flipped), "not-hex!", "", signFor("order_gw1", "pay_2")} {
		_, err := svc.VerifyAndRecord(context.Background(), VerifyRequest{
			UserID:           "u1",
			GatewayOrderID:   "order_gw1",
			GatewayPaymentID: "pay_1",
			Signature:        bad,
			OrderID:          "o1",
		})
		assert.ErrorIs(t, err, ErrInvalidSignature, "signature %q must be rejected", bad)
	}
	assert.Empty(t, payments.created, "nothing persists on signature mismatch")
}

func TestVerifyAndRecord_NoOrderForUser(t *testing.T) {
	svc := newTestService(&mockGateway{}, newPaymentRepo(), &mockOrderRepo{})

	_, err := svc.VerifyAndRecord(context.Background(), VerifyRequest{
		UserID:           "u1",
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        signFor("order_gw1", "pay_1"),
	})
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestRecordCOD_Valid(t *testing.T) {
	payments := newPaymentRepo()
	svc := newTestService(&mockGateway{}, payments, &mockOrderRepo{})

	p, err := svc.RecordCOD(context.Background(), CODRequest{
		OrderID:         "o1",
		Method:          "COD",
		Status:          "Pending",
		TotalAmount:     decimal.NewFromInt(300),
		TransactionType: TypeCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, TypeCOD, p.TransactionType)
	require.Len(t, payments.created, 1)
}

func TestRecordCOD_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockGateway{}, newPaymentRepo(), &mockOrderRepo{})

	_, err := svc.RecordCOD(context.Background(), CODRequest{
		TotalAmount: decimal.NewFromInt(-5),
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "order_id")
	assert.Contains(t, vErr.Fields, "payment_method")
	assert.Contains(t, vErr.Fields, "payment_status")
	assert.Contains(t, vErr.Fields, "total_payment")
}

func TestCompleteCOD_Completes(t *testing.T) {
	payments := newPaymentRepo(&Payment{ID: "p1", Status: "Pending"})
	svc := newTestService(&mockGateway{}, payments, &mockOrderRepo{})

	require.NoError(t, svc.CompleteCOD(context.Background(), "p1"))
	assert.Equal(t, StatusCompleted, payments.updated["p1"])
}

func TestCompleteCOD_IdempotentWhenCompleted(t *testing.T) {
	payments := newPaymentRepo(&Payment{ID: "p1", Status: StatusCompleted})
	svc := newTestService(&mockGateway{}, payments, &mockOrderRepo{})

	require.NoError(t, svc.CompleteCOD(context.Background(), "p1"))
	assert.Empty(t, payments.updated, "already-completed payments are not rewritten")
}

func TestCompleteCOD_NotFound(t *testing.T) {
	svc := newTestService(&mockGateway{}, newPaymentRepo(), &mockOrderRepo{})

	err := svc.CompleteCOD(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
