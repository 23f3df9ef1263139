package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findbooks/api/internal/domain/reseller"
)

const (
	getListingByIDSQL = `SELECT id, book_id, user_id, status, COALESCE(delivery_user_id, ''), created_at
		FROM resellers WHERE id = $1`

	listListingsByUserSQL = `SELECT id, book_id, user_id, status, COALESCE(delivery_user_id, ''), created_at
		FROM resellers WHERE user_id = $1 ORDER BY created_at DESC`

	listAllListingsSQL = `SELECT r.id, r.book_id, r.user_id, r.status, COALESCE(r.delivery_user_id, ''), r.created_at,
			u.first_name, u.last_name
		FROM resellers r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC`

	deleteListingSQL = `DELETE FROM resellers WHERE id = $1`

	setListingStatusSQL = `UPDATE resellers SET status = $2, delivery_user_id = $3
		WHERE id = $1 AND (status <> $2 OR delivery_user_id IS DISTINCT FROM $3)`
)

var _ reseller.Repository = (*ResellerRepository)(nil)

// ResellerRepository implements reseller.Repository backed by PostgreSQL.
type ResellerRepository struct {
	pool *pgxpool.Pool
}

// NewResellerRepository returns a ResellerRepository that uses the given pool.
func NewResellerRepository(pool *pgxpool.Pool) *ResellerRepository {
	return &ResellerRepository{pool: pool}
}

// GetByID returns a listing by its identifier.
func (r *ResellerRepository) GetByID(ctx context.Context, id string) (*reseller.Listing, error) {
	rows, err := r.pool.Query(ctx, getListingByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying listing %q: %w", id, err)
	}

	l, err := pgx.CollectExactlyOneRow(rows, scanListing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reseller.ErrNotFound
		}
		return nil, fmt.Errorf("querying listing %q: %w", id, err)
	}
	return &l, nil
}

// ListByUserID returns the listings created by one user.
func (r *ResellerRepository) ListByUserID(ctx context.Context, userID string) ([]reseller.Listing, error) {
	rows, err := r.pool.Query(ctx, listListingsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing resellers for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanListing)
}

// ListAll returns every listing with the reselling user's name joined in.
func (r *ResellerRepository) ListAll(ctx context.Context) ([]reseller.SellerRecord, error) {
	rows, err := r.pool.Query(ctx, listAllListingsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing resellers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (reseller.SellerRecord, error) {
		var rec reseller.SellerRecord
		err := row.Scan(
			&rec.ID, &rec.BookID, &rec.UserID, &rec.Status, &rec.DeliveryUserID, &rec.CreatedAt,
			&rec.SellerFirstName, &rec.SellerLastName,
		)
		return rec, err
	})
}

// Delete removes a listing.
func (r *ResellerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteListingSQL, id)
	if err != nil {
		return fmt.Errorf("deleting listing %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return reseller.ErrNotFound
	}
	return nil
}

// SetStatusAndHandler updates status and delivery handler in one statement
// and reports how many rows changed. A no-op update (already in the target
// state) counts as zero, mirroring the modified-count contract.
func (r *ResellerRepository) SetStatusAndHandler(ctx context.Context, id, status, handlerUserID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, setListingStatusSQL, id, status, handlerUserID)
	if err != nil {
		return 0, fmt.Errorf("updating listing %q: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func scanListing(row pgx.CollectableRow) (reseller.Listing, error) {
	var l reseller.Listing
	err := row.Scan(&l.ID, &l.BookID, &l.UserID, &l.Status, &l.DeliveryUserID, &l.CreatedAt)
	return l, err
}
