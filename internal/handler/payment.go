package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/findbooks/api/internal/auth"
	"github.com/findbooks/api/internal/domain/payment"
)

// InitiatePaymentOrder handles POST /orders: it registers a payment order with
// the gateway for the given major-unit amount.
func (h *Handler) InitiatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		respondErrorMsg(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}

	initiated, err := h.payments.InitiateOrder(r.Context(), req.Amount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, initiated)
}

// VerifyPayment handles POST /verify: it checks the gateway callback
// signature and records the payment against the caller's latest order.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GatewayOrderID   string `json:"razorpay_order_id"`
		GatewayPaymentID string `json:"razorpay_payment_id"`
		Signature        string `json:"razorpay_signature"`
		OrderID          string `json:"order_id"`
	}
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.payments.VerifyAndRecord(r.Context(), payment.VerifyRequest{
		UserID:           auth.UserIDFromContext(r.Context()),
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		OrderID:          req.OrderID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

// ListPayments handles GET /verify: all payments with payer names resolved.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	records, err := h.payments.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(records) == 0 {
		respondErrorMsg(w, http.StatusNotFound, "no payments found")
		return
	}
	respond(w, http.StatusOK, records)
}

// CreateCODPayment handles POST /{transactionType}/codpayment.
func (h *Handler) CreateCODPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID     string          `json:"order_id"`
		Method      string          `json:"payment_method"`
		Status      string          `json:"payment_status"`
		TotalAmount decimal.Decimal `json:"total_payment"`
	}
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.payments.RecordCOD(r.Context(), payment.CODRequest{
		OrderID:         req.OrderID,
		Method:          req.Method,
		Status:          req.Status,
		TotalAmount:     req.TotalAmount,
		TransactionType: chi.URLParam(r, "transactionType"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

// CompleteCODPayment handles PUT /codpayment. Completing an already completed
// payment succeeds without a write.
func (h *Handler) CompleteCODPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentID string `json:"payment_id"`
	}
	if err := decode(r, &req); err != nil || req.PaymentID == "" {
		respondErrorMsg(w, http.StatusBadRequest, "payment_id is required")
		return
	}

	if err := h.payments.CompleteCOD(r.Context(), req.PaymentID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "payment completed"})
}
