package auth

import (
	"context"
	"time"
)

// TokenTypeAccess is the only token type accepted for identity recovery.
const TokenTypeAccess = "access"

// TokenService issues and introspects signed access tokens.
type TokenService interface {
	// GenerateToken creates a signed access token for the given subject.
	// Returns the token string or an error if signing fails.
	GenerateToken(ctx context.Context, subject, email string) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrWrongTokenType or
	// ErrInvalidToken when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of an access token.
type Claims struct {
	// Subject is the identifier of the user the token was issued for.
	Subject string `json:"sub,omitempty"`

	// Email is the user's email address, when the issuer included it.
	Email string `json:"email,omitempty"`

	// TokenType indicates the purpose of the token.
	TokenType string `json:"type,omitempty"`

	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
