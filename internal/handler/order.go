package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/findbooks/api/internal/domain/order"
)

// FinalizeOrder handles PUT /addorder: it copies the cart's line items and the
// supplied total onto the cart's order and marks the ordered resell listings
// as sold, all in one transaction.
func (h *Handler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartID      string          `json:"cart_id"`
		TotalAmount decimal.Decimal `json:"total_amount"`
		Status      string          `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CartID == "" {
		respondErrorMsg(w, http.StatusBadRequest, "cart_id is required")
		return
	}

	o, err := h.orders.Finalize(r.Context(), order.FinalizeRequest{
		CartID:      req.CartID,
		TotalAmount: req.TotalAmount,
		Status:      req.Status,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

// TransitionOrderStatus handles PUT /orders/{orderID}/status. The target
// status is validated against the transition table before anything persists.
func (h *Handler) TransitionOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next, err := order.ParseStatus(req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	o, err := h.orders.TransitionStatus(r.Context(), chi.URLParam(r, "orderID"), next)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}
