package middleware

import (
	"context"
	"net/http"

	"github.com/inscrevo/server/internal/api/problem"
	"github.com/inscrevo/server/internal/auth"
)

const (
	// UserIDKey is the context key for the authenticated user id.
	UserIDKey contextKey = "user_id"
	// UserRoleKey is the context key for the authenticated user role.
	UserRoleKey contextKey = "user_role"
)

// RequireAuth validates the bearer token and puts the subject and role in
// context. Unauthenticated requests get a 401 problem response.
func RequireAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized,
					"https://inscrevo.app/problems/unauthorized", "Authentication required", err, env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized,
					"https://inscrevo.app/problems/unauthorized", "Invalid or expired token", err, env)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id from context.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// UserRole extracts the authenticated user role from context.
func UserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}
