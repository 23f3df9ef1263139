// Package otp implements one-time code issuance and verification for email
// confirmation flows. Codes are six digits, single-use, and expire after ten
// minutes.
package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Purpose names the flow an OTP belongs to. Each purpose has its own message
// body and its own active code per email.
type Purpose string

const (
	PurposeRegister       Purpose = "register"
	PurposeForgotPassword Purpose = "forgotpassword"
	PurposeDelivery       Purpose = "deliverydetail"
	PurposeResellDelivery Purpose = "reselldelivery"
)

// TTL is how long an issued code stays valid.
const TTL = 10 * time.Minute

var (
	// ErrNotFound is returned when no active code exists for the email.
	ErrNotFound = errors.New("OTP not found or expired")

	// ErrMismatch is returned when the supplied code is wrong.
	ErrMismatch = errors.New("invalid OTP")

	// ErrExpired is returned when the code exists but its TTL has passed.
	ErrExpired = errors.New("OTP expired")
)

// Code is an issued one-time code.
type Code struct {
	Email     string
	Purpose   Purpose
	Value     string
	ExpiresAt time.Time
}

// Repository defines persistence operations for OTP codes. Upsert replaces
// any existing code for the same (email, purpose).
type Repository interface {
	Upsert(ctx context.Context, c *Code) error
	Get(ctx context.Context, email string, purpose Purpose) (*Code, error)
	Delete(ctx context.Context, email string, purpose Purpose) error
}

// Mailer delivers an OTP message. Email delivery itself is an external
// collaborator; the SMTP implementation lives in internal/mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message returns the email body for a code issued under the given purpose.
func Message(p Purpose, code string) string {
	switch p {
	case PurposeForgotPassword:
		return fmt.Sprintf("Your OTP to reset your password is: %s.\nDo not share this code with anyone. It will expire in 10 minutes.", code)
	case PurposeDelivery:
		return fmt.Sprintf("Your delivery confirmation OTP is: %s.\nPlease provide this code to the delivery agent to receive your order.", code)
	case PurposeResellDelivery:
		return fmt.Sprintf("Your OTP to collect the resell product is: %s.\nPlease provide this code to the delivery agent to complete the pickup.\nDo not share this code with anyone. It is valid for 10 minutes.", code)
	default:
		return fmt.Sprintf("Welcome to FINDBOOKS! Your verification OTP is: %s.\nIt will expire in 10 minutes. Please do not share this code with anyone.", code)
	}
}
