package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"credchain/internal/session"
)

// TokenValidator validates an API access token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims is the subset of token claims the middleware propagates.
type TokenClaims struct {
	Account string
	Admin   bool
	Issuer  bool
}

type contextKeyAccount struct{}
type contextKeyRoles struct{}

var (
	ContextKeyAccount = contextKeyAccount{}
	ContextKeyRoles   = contextKeyRoles{}
)

// GetAccount retrieves the authenticated wallet address from the context.
func GetAccount(ctx context.Context) string {
	account, ok := ctx.Value(ContextKeyAccount).(string)
	if !ok {
		return ""
	}
	return account
}

// GetRoles retrieves the authenticated role flags from the context.
func GetRoles(ctx context.Context) session.Roles {
	roles, ok := ctx.Value(ContextKeyRoles).(session.Roles)
	if !ok {
		return session.Roles{}
	}
	return roles
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's account and roles in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx))
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyAccount, claims.Account)
			ctx = context.WithValue(ctx, ContextKeyRoles, session.Roles{
				Admin:  claims.Admin,
				Issuer: claims.Issuer,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
