package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jfowler/remind-api/internal/api/shared"
	"github.com/jfowler/remind-api/internal/service/auth"
)

// AuthMiddleware validates JWT access tokens on protected routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates an AuthMiddleware with the given JWT service.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate checks the Authorization header for a valid bearer token
// and stores the authenticated user's ID in the request context. Requests
// without a valid token are rejected with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractBearerToken(r)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), tokenString)
		if err != nil {
			message := "Invalid authentication token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "Authentication token has expired"
			}
			shared.RespondWithError(w, r, http.StatusUnauthorized, message)
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken pulls the token out of an "Authorization: Bearer ..."
// header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}
