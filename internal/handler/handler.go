// Package handler exposes the HTTP surface of the API. Handlers decode
// requests, pull the caller identity from the request context, call into the
// domain services, and map domain errors onto the wire error shape.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/findbooks/api/internal/domain/book"
	"github.com/findbooks/api/internal/domain/cart"
	"github.com/findbooks/api/internal/domain/order"
	"github.com/findbooks/api/internal/domain/otp"
	"github.com/findbooks/api/internal/domain/payment"
	"github.com/findbooks/api/internal/domain/reseller"
	"github.com/findbooks/api/internal/domain/user"
)

// Handler bundles the domain services behind the HTTP routes.
type Handler struct {
	users     *user.Service
	otps      *otp.Service
	books     *book.Service
	orders    *order.Service
	payments  *payment.Service
	resellers *reseller.Service
}

// New creates a Handler over the given services.
func New(
	users *user.Service,
	otps *otp.Service,
	books *book.Service,
	orders *order.Service,
	payments *payment.Service,
	resellers *reseller.Service,
) *Handler {
	return &Handler{
		users:     users,
		otps:      otps,
		books:     books,
		orders:    orders,
		payments:  payments,
		resellers: resellers,
	}
}

type errorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondErrorMsg(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]errorBody{"error": {Code: status, Message: msg}})
}

// respondError translates a domain error into the wire error shape.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *payment.ValidationError
		transition *order.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		respond(w, http.StatusBadRequest, map[string]errorBody{"error": {
			Code:    http.StatusBadRequest,
			Message: "validation failed",
			Fields:  validation.Fields,
		}})
	case errors.As(err, &transition):
		respondErrorMsg(w, http.StatusBadRequest, transition.Error())
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, book.ErrNotFound),
		errors.Is(err, book.ErrSubcategoryNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, reseller.ErrNotFound),
		errors.Is(err, otp.ErrNotFound):
		respondErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, book.ErrDuplicateISBN),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, reseller.ErrEmptyStatus),
		errors.Is(err, otp.ErrMismatch),
		errors.Is(err, otp.ErrExpired):
		respondErrorMsg(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondErrorMsg(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
