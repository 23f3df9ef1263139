package otp

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const mailSubject = "FINDBOOKS - OTP Verification Code"

// Service issues, delivers, and verifies one-time codes.
type Service struct {
	codes  Repository
	mailer Mailer
	now    func() time.Time
}

// NewService creates an OTP Service.
func NewService(codes Repository, mailer Mailer) *Service {
	return &Service{
		codes:  codes,
		mailer: mailer,
		now:    time.Now,
	}
}

// Issue generates a fresh six-digit code for (email, purpose), stores it with
// its expiry, and emails it. A previously issued code for the same pair is
// replaced.
func (s *Service) Issue(ctx context.Context, email string, purpose Purpose) error {
	code, err := generateCode()
	if err != nil {
		return errors.Wrap(err, "generate code")
	}

	c := &Code{
		Email:     normalizeEmail(email),
		Purpose:   purpose,
		Value:     code,
		ExpiresAt: s.now().Add(TTL),
	}
	if err := s.codes.Upsert(ctx, c); err != nil {
		return errors.Wrap(err, "store code")
	}

	if err := s.mailer.Send(ctx, email, mailSubject, Message(purpose, code)); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}

// Verify checks the supplied code and consumes it on success so it cannot be
// replayed.
func (s *Service) Verify(ctx context.Context, email string, purpose Purpose, code string) error {
	c, err := s.codes.Get(ctx, normalizeEmail(email), purpose)
	if err != nil {
		return err
	}
	if s.now().After(c.ExpiresAt) {
		return ErrExpired
	}
	if c.Value != code {
		return ErrMismatch
	}
	return s.codes.Delete(ctx, c.Email, purpose)
}

// generateCode returns a uniformly random six-digit decimal code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
