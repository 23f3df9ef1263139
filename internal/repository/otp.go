package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findbooks/api/internal/domain/otp"
)

const (
	upsertOTPSQL = `INSERT INTO otp_codes (email, purpose, code, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email, purpose) DO UPDATE SET code = $3, expires_at = $4`

	getOTPSQL = `SELECT email, purpose, code, expires_at
		FROM otp_codes WHERE email = $1 AND purpose = $2`

	deleteOTPSQL = `DELETE FROM otp_codes WHERE email = $1 AND purpose = $2`
)

var _ otp.Repository = (*OTPRepository)(nil)

// OTPRepository implements otp.Repository backed by PostgreSQL. One active
// code per (email, purpose); reissuing replaces the previous code.
type OTPRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository returns an OTPRepository that uses the given pool.
func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Upsert stores a code, replacing any existing one for the same email and purpose.
func (r *OTPRepository) Upsert(ctx context.Context, c *otp.Code) error {
	_, err := r.pool.Exec(ctx, upsertOTPSQL, c.Email, c.Purpose, c.Value, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upserting OTP for %q: %w", c.Email, err)
	}
	return nil
}

// Get returns the active code for the email and purpose.
func (r *OTPRepository) Get(ctx context.Context, email string, purpose otp.Purpose) (*otp.Code, error) {
	rows, err := r.pool.Query(ctx, getOTPSQL, email, purpose)
	if err != nil {
		return nil, fmt.Errorf("querying OTP for %q: %w", email, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (otp.Code, error) {
		var c otp.Code
		err := row.Scan(&c.Email, &c.Purpose, &c.Value, &c.ExpiresAt)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, otp.ErrNotFound
		}
		return nil, fmt.Errorf("querying OTP for %q: %w", email, err)
	}
	return &c, nil
}

// Delete consumes the code for the email and purpose.
func (r *OTPRepository) Delete(ctx context.Context, email string, purpose otp.Purpose) error {
	_, err := r.pool.Exec(ctx, deleteOTPSQL, email, purpose)
	if err != nil {
		return fmt.Errorf("deleting OTP for %q: %w", email, err)
	}
	return nil
}
