package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findbooks/api/internal/auth"
	"github.com/findbooks/api/internal/domain/book"
	"github.com/findbooks/api/internal/domain/cart"
	"github.com/findbooks/api/internal/domain/order"
	"github.com/findbooks/api/internal/domain/otp"
	"github.com/findbooks/api/internal/domain/payment"
	"github.com/findbooks/api/internal/domain/reseller"
	"github.com/findbooks/api/internal/domain/user"
	"github.com/findbooks/api/internal/handler"
)

const gatewaySecret = "gw-secret"

// --- Stub repositories ---

type stubUserRepo struct {
	byID map[string]*user.User
}

func (s *stubUserRepo) Create(_ context.Context, u *user.User) error {
	s.byID[u.ID] = u
	return nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) List(_ context.Context) ([]user.User, error) { return nil, nil }
func (s *stubUserRepo) Update(_ context.Context, u *user.User) error {
	s.byID[u.ID] = u
	return nil
}
func (s *stubUserRepo) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

type stubOTPRepo struct{}

func (stubOTPRepo) Upsert(_ context.Context, _ *otp.Code) error { return nil }
func (stubOTPRepo) Get(_ context.Context, _ string, _ otp.Purpose) (*otp.Code, error) {
	return nil, otp.ErrNotFound
}
func (stubOTPRepo) Delete(_ context.Context, _ string, _ otp.Purpose) error { return nil }

type stubMailer struct{}

func (stubMailer) Send(_ context.Context, _, _, _ string) error { return nil }

type stubBookRepo struct {
	byID map[string]*book.Book
}

func (s *stubBookRepo) Create(_ context.Context, b *book.Book) error {
	s.byID[b.ID] = b
	return nil
}

func (s *stubBookRepo) GetByID(_ context.Context, id string) (*book.Book, error) {
	b, ok := s.byID[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	return b, nil
}

func (s *stubBookRepo) GetByISBN(_ context.Context, _ string) (*book.Book, error) {
	return nil, book.ErrNotFound
}
func (s *stubBookRepo) List(_ context.Context) ([]book.Book, error) { return nil, nil }
func (s *stubBookRepo) ListBySubcategoryID(_ context.Context, _ string) ([]book.Book, error) {
	return nil, nil
}
func (s *stubBookRepo) ListByIDs(_ context.Context, ids []string) ([]book.Book, error) {
	var out []book.Book
	for _, id := range ids {
		if b, ok := s.byID[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}
func (s *stubBookRepo) Update(_ context.Context, _ *book.Book) error { return nil }
func (s *stubBookRepo) Delete(_ context.Context, _ string) error     { return nil }

type stubSubcategoryRepo struct{}

func (stubSubcategoryRepo) GetByID(_ context.Context, id string) (*book.Subcategory, error) {
	if id != "s1" {
		return nil, book.ErrSubcategoryNotFound
	}
	return &book.Subcategory{ID: "s1", Name: "Fiction"}, nil
}

func (stubSubcategoryRepo) GetByName(_ context.Context, _ string) (*book.Subcategory, error) {
	return nil, book.ErrSubcategoryNotFound
}

type stubCartRepo struct {
	byID map[string]*cart.Cart
}

func (s *stubCartRepo) Create(_ context.Context, c *cart.Cart) error {
	s.byID[c.ID] = c
	return nil
}

func (s *stubCartRepo) GetByID(_ context.Context, id string) (*cart.Cart, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

type stubOrderRepo struct {
	byID map[string]*order.Order

	statusUpdates int
	finalized     *order.Order
}

func (s *stubOrderRepo) Create(_ context.Context, o *order.Order) error {
	s.byID[o.ID] = o
	return nil
}

func (s *stubOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrderRepo) GetByCartID(_ context.Context, cartID string) (*order.Order, error) {
	for _, o := range s.byID {
		if o.CartID == cartID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, order.ErrNotFound
}

func (s *stubOrderRepo) GetLatestByUserID(_ context.Context, userID string) (*order.Order, error) {
	for _, o := range s.byID {
		if o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, order.ErrNotFound
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, id string, status order.Status) error {
	o, ok := s.byID[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	s.statusUpdates++
	return nil
}

func (s *stubOrderRepo) Finalize(_ context.Context, o *order.Order, _ []string) error {
	cp := *o
	s.byID[o.ID] = &cp
	s.finalized = &cp
	return nil
}

type stubPaymentRepo struct {
	created []*payment.Payment
	records []payment.PayerRecord
}

func (s *stubPaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	s.created = append(s.created, p)
	return nil
}

func (s *stubPaymentRepo) GetByID(_ context.Context, _ string) (*payment.Payment, error) {
	return nil, payment.ErrNotFound
}
func (s *stubPaymentRepo) UpdateStatus(_ context.Context, _, _ string) error { return nil }
func (s *stubPaymentRepo) ListWithPayers(_ context.Context) ([]payment.PayerRecord, error) {
	return s.records, nil
}

type stubGateway struct{}

func (stubGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*payment.GatewayOrder, error) {
	return &payment.GatewayOrder{ID: "order_gw1", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (stubGateway) KeyID() string { return "rzp_test_key" }

type stubResellerRepo struct {
	modifiedRows int64
	updates      int
}

func (s *stubResellerRepo) GetByID(_ context.Context, _ string) (*reseller.Listing, error) {
	return nil, reseller.ErrNotFound
}
func (s *stubResellerRepo) ListByUserID(_ context.Context, _ string) ([]reseller.Listing, error) {
	return nil, nil
}
func (s *stubResellerRepo) ListAll(_ context.Context) ([]reseller.SellerRecord, error) {
	return nil, nil
}
func (s *stubResellerRepo) Delete(_ context.Context, _ string) error { return nil }
func (s *stubResellerRepo) SetStatusAndHandler(_ context.Context, _, _, _ string) (int64, error) {
	s.updates++
	return s.modifiedRows, nil
}

// --- Test environment ---

type env struct {
	h      http.Handler
	tokens *auth.Tokens

	users     *stubUserRepo
	orders    *stubOrderRepo
	carts     *stubCartRepo
	payments  *stubPaymentRepo
	resellers *stubResellerRepo
}

func newEnv() *env {
	e := &env{
		tokens:    auth.NewTokens([]byte("test-jwt-secret")),
		users:     &stubUserRepo{byID: make(map[string]*user.User)},
		orders:    &stubOrderRepo{byID: make(map[string]*order.Order)},
		carts:     &stubCartRepo{byID: make(map[string]*cart.Cart)},
		payments:  &stubPaymentRepo{},
		resellers: &stubResellerRepo{modifiedRows: 1},
	}

	books := &stubBookRepo{byID: make(map[string]*book.Book)}
	h := handler.New(
		user.NewService(e.users, e.tokens),
		otp.NewService(stubOTPRepo{}, stubMailer{}),
		book.NewService(books, stubSubcategoryRepo{}),
		order.NewService(e.carts, e.orders),
		payment.NewService(stubGateway{}, e.payments, e.orders, []byte(gatewaySecret)),
		reseller.NewService(e.resellers, books),
	)
	e.h = h.Routes(auth.Middleware(e.tokens))
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	return w
}

func (e *env) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

// --- Tests ---

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/users/me", "tampered", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegister_ValidationFields(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "not-an-email",
		"password": "123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Error.Fields, "first_name")
	assert.Contains(t, resp.Error.Fields, "email")
	assert.Contains(t, resp.Error.Fields, "password")
}

func TestRegisterThenLogin(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"first_name": "Asha",
		"last_name":  "Rao",
		"email":      "asha@example.com",
		"password":   "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)

	w = e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionOrderStatus_InvalidRejectedBeforePersistence(t *testing.T) {
	e := newEnv()
	e.orders.byID["o1"] = &order.Order{ID: "o1", CartID: "c1", Status: order.StatusDelivered}

	w := e.do(t, http.MethodPut, "/api/orders/o1/status", e.token(t, "u1"),
		map[string]string{"status": "Pending"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, e.orders.statusUpdates, "rejected transitions must not write")
}

func TestTransitionOrderStatus_UnknownStatus(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPut, "/api/orders/o1/status", e.token(t, "u1"),
		map[string]string{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, e.orders.statusUpdates)
}

func TestTransitionOrderStatus_MissingOrder(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPut, "/api/orders/missing/status", e.token(t, "u1"),
		map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinalizeOrder(t *testing.T) {
	e := newEnv()
	e.carts.byID["c1"] = &cart.Cart{
		ID:     "c1",
		UserID: "u1",
		Items:  []cart.Item{{BookID: "b1", Quantity: 2}},
	}
	e.orders.byID["o1"] = &order.Order{ID: "o1", UserID: "u1", CartID: "c1", Status: order.StatusPending}

	w := e.do(t, http.MethodPut, "/api/addorder", e.token(t, "u1"), map[string]any{
		"cart_id":      "c1",
		"total_amount": "299.00",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, e.orders.finalized)
	assert.Equal(t, []order.LineItem{{BookID: "b1", Quantity: 2}}, e.orders.finalized.Items)
}

func TestFinalizeOrder_MissingCart(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPut, "/api/addorder", e.token(t, "u1"), map[string]any{
		"cart_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInitiatePaymentOrder(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/api/orders", "", map[string]any{"amount": "499.99"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Key      string `json:"key"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(49999), resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.Key)

	w = e.do(t, http.MethodPost, "/api/orders", "", map[string]any{"amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyPayment(t *testing.T) {
	e := newEnv()
	e.orders.byID["o1"] = &order.Order{
		ID:          "o1",
		UserID:      "u1",
		CartID:      "c1",
		TotalAmount: decimal.RequireFromString("750.00"),
	}

	mac := hmac.New(sha256.New, []byte(gatewaySecret))
	mac.Write([]byte("order_gw1|pay_1"))
	sig := hex.EncodeToString(mac.Sum(nil))

	w := e.do(t, http.MethodPost, "/api/verify", e.token(t, "u1"), map[string]string{
		"razorpay_order_id":   "order_gw1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
		"order_id":            "o1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.payments.created, 1)

	w = e.do(t, http.MethodPost, "/api/verify", e.token(t, "u1"), map[string]string{
		"razorpay_order_id":   "order_gw1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
		"order_id":            "o1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, e.payments.created, 1, "a rejected signature must not record a payment")
}

func TestListPayments_EmptyIs404(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodGet, "/api/verify", e.token(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCODPayment(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/api/cod/codpayment", e.token(t, "u1"), map[string]any{
		"order_id":       "o1",
		"payment_method": "COD",
		"payment_status": "Pending",
		"total_payment":  "300.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, e.payments.created, 1)
	assert.Equal(t, "cod", e.payments.created[0].TransactionType,
		"the transaction type comes from the path")
}

func TestCreateCODPayment_Validation(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/api/cod/codpayment", e.token(t, "u1"), map[string]any{
		"total_payment": "0",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Error.Fields, "order_id")
	assert.Contains(t, resp.Error.Fields, "total_payment")
}

func TestCompleteCODPayment_Missing(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPut, "/api/codpayment", e.token(t, "u1"),
		map[string]string{"payment_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransitionResellListing(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPut, "/api/Sell/sellorders", e.token(t, "courier-7"),
		map[string]string{"reseller_id": "r1", "book_id": "b1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, e.resellers.updates)
}

func TestTransitionResellListing_ZeroRowsIs404(t *testing.T) {
	e := newEnv()
	e.resellers.modifiedRows = 0

	w := e.do(t, http.MethodPut, "/api/Sell/sellorders", e.token(t, "courier-7"),
		map[string]string{"reseller_id": "missing", "book_id": "b1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyResellListings_EmptyIs404(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodGet, "/api/sellorders", e.token(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBook_SubcategoryMustExist(t *testing.T) {
	e := newEnv()

	body := map[string]string{
		"name":           "Some Book",
		"author":         "Someone",
		"price":          "100",
		"isbn":           "9780000000001",
		"subcategory_id": "unknown",
	}
	w := e.do(t, http.MethodPost, "/api/user/books", e.token(t, "u1"), body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body["subcategory_id"] = "s1"
	w = e.do(t, http.MethodPost, "/api/user/books", e.token(t, "u1"), body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created book.Book
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.True(t, created.IsUsed, "books created through the user path are used books")
	assert.Equal(t, "u1", created.UserID)
}
