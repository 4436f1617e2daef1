// Package middleware provides HTTP middlewares for session
// authentication and request logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionValidator resolves a session token to its authenticated user.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, error)
}

// SessionAuth enforces cookie-based session authentication.
//
// It reads the session cookie from the incoming request and validates
// it against the session store. On success the authenticated username
// is stored in the request context for downstream handlers. A missing,
// unknown, or expired session answers 401 with the wire error code so
// clients can re-authenticate and retry.
func SessionAuth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session")
			if err != nil {
				http.Error(w, string(bberrors.CodeAuthenticationFailed), http.StatusUnauthorized)
				return
			}
			username, err := validator.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, string(bberrors.CodeAuthenticationFailed), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated username from the
// request context. Returns an empty string if not found.
func GetUserFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
