package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "userID"

// Unauthorized writes the dev API's 401 answer. It matches the body shape of
// every other error ({"detail": ...}) so the client's single response handler
// treats it like any other.
type Unauthorized func(w http.ResponseWriter, r *http.Request, detail string)

// RequireAuth verifies the "Authorization: Bearer <jwt>" header and stores the
// user id in the request context. Missing, malformed or expired tokens are
// answered by deny and stop the chain.
func RequireAuth(tokens *TokenService, deny Unauthorized) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				deny(w, r, "Not authenticated")
				return
			}
			userID, err := tokens.Validate(raw)
			if err != nil {
				deny(w, r, "Could not validate credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id set by RequireAuth.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok && id > 0
}
