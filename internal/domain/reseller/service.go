package reseller

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/findbooks/api/internal/domain/book"
)

// ErrEmptyStatus rejects a transition without a target status. The status
// value itself is deliberately free-form: the delivery flow uses its own
// vocabulary ("Sell", pickup states) outside the order enumeration.
var ErrEmptyStatus = errors.New("status required")

// Service coordinates resell listing transitions and deletions.
type Service struct {
	listings Repository
	books    book.Repository
}

// NewService creates a reseller Service.
func NewService(listings Repository, books book.Repository) *Service {
	return &Service{
		listings: listings,
		books:    books,
	}
}

// Transition updates a listing's status and records the authenticated caller
// as the delivery handler in one atomic update. Zero modified rows means the
// listing is missing or already in the target state; both surface as
// ErrNotFound, matching the ambiguity of the upstream contract.
func (s *Service) Transition(ctx context.Context, listingID, status, handlerUserID string) error {
	if status == "" {
		return ErrEmptyStatus
	}

	n, err := s.listings.SetStatusAndHandler(ctx, listingID, status, handlerUserID)
	if err != nil {
		return errors.Wrap(err, "update listing")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing after verifying both the listing and its
// referenced book exist. It returns the freed book ID.
func (s *Service) Delete(ctx context.Context, listingID string) (string, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return "", err
	}
	if _, err := s.books.GetByID(ctx, l.BookID); err != nil {
		return "", err
	}
	if err := s.listings.Delete(ctx, l.ID); err != nil {
		return "", errors.Wrap(err, "delete listing")
	}
	return l.BookID, nil
}

// ListByUser returns the caller's resell listings.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Listing, error) {
	return s.listings.ListByUserID(ctx, userID)
}

// ListAll returns every listing with reseller names resolved.
func (s *Service) ListAll(ctx context.Context) ([]SellerRecord, error) {
	return s.listings.ListAll(ctx)
}
