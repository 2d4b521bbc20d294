package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/scry-bootstrap/internal/api/shared"
	"github.com/phrazzld/scry-bootstrap/internal/service/auth"
)

// AuthMiddleware requires a valid bearer access token.
type AuthMiddleware struct {
	tokens auth.TokenService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(tokens auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the Authorization header and stores the token
// subject on the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			return
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrWrongTokenType),
			errors.Is(err, auth.ErrTokenNotYetValid),
			errors.Is(err, auth.ErrMissingToken):
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err,
				shared.WithElevatedLogLevel())
			return
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			return
		}

		ctx := shared.SetSubject(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
