package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrtime/internal/auth"
	"hrtime/internal/domain/identity"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// Auth resolves a bearer token into the request principal. Requests without a
// valid token pass through anonymous; RequireAuth draws the line.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, identity.Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (identity.Principal, bool) {
	user, ok := ctx.Value(ctxKeyUser).(identity.Principal)
	return user, ok
}
