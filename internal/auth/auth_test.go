package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens([]byte("secret"))

	raw, err := tokens.Issue("u1")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	userID, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	raw, err := NewTokens([]byte("secret-a")).Issue("u1")
	require.NoError(t, err)

	_, err = NewTokens([]byte("secret-b")).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsGarbage(t *testing.T) {
	tokens := NewTokens([]byte("secret"))

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := tokens.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	tokens := NewTokens([]byte("secret"))
	handler := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no token provided")
}

func TestMiddleware_InvalidToken(t *testing.T) {
	tokens := NewTokens([]byte("secret"))
	handler := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_ValidToken(t *testing.T) {
	tokens := NewTokens([]byte("secret"))
	raw, err := tokens.Issue("u42")
	require.NoError(t, err)

	var gotUserID string
	handler := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u42", gotUserID)
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserIDFromContext(req.Context()))
}
