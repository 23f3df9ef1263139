package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/findbooks/api/internal/domain/cart"
)

// InvalidTransitionError indicates a status change the transition table forbids.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// FinalizeRequest holds the input for finalizing an order from its cart.
type FinalizeRequest struct {
	CartID      string
	TotalAmount decimal.Decimal
	// Status optionally replaces the order status. Values outside the
	// enumeration are ignored rather than rejected.
	Status string
}

// Service coordinates order finalization and status transitions.
type Service struct {
	carts  cart.Repository
	orders Repository
}

// NewService creates an order Service with the required repositories.
func NewService(carts cart.Repository, orders Repository) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
	}
}

// Finalize loads the cart and its order, copies the cart's line items and the
// supplied total onto the order, and persists the order together with the
// reseller listing flips in one transaction.
func (s *Service) Finalize(ctx context.Context, req FinalizeRequest) (*Order, error) {
	c, err := s.carts.GetByID(ctx, req.CartID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByCartID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	if req.Status != "" {
		if st, perr := ParseStatus(req.Status); perr == nil {
			o.Status = st
		}
	}

	items := make([]LineItem, len(c.Items))
	bookIDs := make([]string, len(c.Items))
	for i, it := range c.Items {
		items[i] = LineItem{BookID: it.BookID, Quantity: it.Quantity}
		bookIDs[i] = it.BookID
	}
	o.Items = items
	o.TotalAmount = req.TotalAmount

	if err := s.orders.Finalize(ctx, o, bookIDs); err != nil {
		return nil, fmt.Errorf("finalize order %q: %w", o.ID, err)
	}
	return o, nil
}

// TransitionStatus moves an order to next, enforcing the transition table.
// Repeating the current status succeeds without a write.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status == next {
		return o, nil
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, next); err != nil {
		return nil, fmt.Errorf("update order %q status: %w", o.ID, err)
	}
	o.Status = next
	return o, nil
}
