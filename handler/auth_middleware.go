package handler

import (
	"context"
	"go-identity-api/common"
	"go-identity-api/model"
	"go-identity-api/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	// ClaimsKey holds the verified *model.AppClaims of the caller.
	ClaimsKey contextKey = "claims"
)

// AuthMiddleware verifies the bearer token on every request and stores the
// typed claims in the request context.
func AuthMiddleware(tokenService *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
				err.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				err.Send(w)
				return
			}

			claims, err := tokenService.ParseAccessToken(headerParts[1])
			if err != nil {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates an endpoint on a Permission claim, granted to the
// caller directly or inherited from one of their roles.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.HasPermission(permission) {
				err := common.NewAppError(http.StatusForbidden, "Access denied. Missing required permission.", nil)
				err.Send(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates an endpoint on a role membership claim.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.HasRole(role) {
				err := common.NewAppError(http.StatusForbidden, "Access denied. Role membership required.", nil)
				err.Send(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext extracts the verified claims stored by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*model.AppClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*model.AppClaims)
	return claims, ok && claims != nil
}
