// Package auth mints and verifies the bearer tokens that identify callers,
// and provides the middleware that resolves a token into a caller ID on the
// request context.
package auth

import (
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token fails parsing or verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// claims is the JWT payload; only the user ID is carried.
type claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens signs and parses HS256 JWTs.
type Tokens struct {
	secret []byte
}

// NewTokens creates a token manager with the given signing secret.
func NewTokens(secret []byte) *Tokens {
	return &Tokens{secret: secret}
}

// Issue signs a token carrying the user ID.
func (t *Tokens) Issue(userID string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{UserID: userID})
	signed, err := tok.SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Parse verifies a token and returns the user ID it carries.
func (t *Tokens) Parse(raw string) (string, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid || c.UserID == "" {
		return "", ErrInvalidToken
	}
	return c.UserID, nil
}
