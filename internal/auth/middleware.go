package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// userIDKey is the context key for the authenticated caller's user ID.
type userIDKey struct{}

// UserIDFromContext extracts the authenticated caller's ID from the context.
// It returns an empty string when the request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context carrying the given caller ID. Exposed for
// handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Middleware returns a middleware that requires a valid Bearer token and
// stores the resolved caller ID in the request context. Missing tokens get
// 401; invalid or expired ones get 403.
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				deny(w, http.StatusUnauthorized, "no token provided")
				return
			}

			userID, err := tokens.Parse(raw)
			if err != nil {
				deny(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": msg},
	})
}
