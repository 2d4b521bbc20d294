package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-bootstrap/internal/config"
	"github.com/phrazzld/scry-bootstrap/internal/platform/logger"
)

// hmacTokenService is an implementation of TokenService using HMAC-SHA signing.
type hmacTokenService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	timeFunc      func() time.Time // Injectable for testing
	clockSkew     time.Duration    // Allowed time difference for validation to handle clock drift
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	Email     string `json:"email,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacTokenService implements TokenService interface
var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a new token service using HMAC-SHA signing.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	return newHMACTokenService(cfg, time.Now)
}

func newHMACTokenService(cfg config.AuthConfig, now func() time.Time) (*hmacTokenService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if cfg.TokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}

	return &hmacTokenService{
		signingKey:    []byte(cfg.JWTSecret),
		tokenLifetime: time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		timeFunc:      now,
		clockSkew:     time.Duration(cfg.ClockSkewSeconds) * time.Second,
	}, nil
}

// GenerateToken creates a signed JWT access token for subject.
func (s *hmacTokenService) GenerateToken(ctx context.Context, subject, email string) (string, error) {
	return s.sign(ctx, subject, email, s.timeFunc().Add(s.tokenLifetime))
}

func (s *hmacTokenService) sign(ctx context.Context, subject, email string, expiry time.Time) (string, error) {
	log := logger.FromContext(ctx)
	if subject == "" {
		return "", fmt.Errorf("token subject must not be empty")
	}

	claims := jwtCustomClaims{
		Email:     email,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(s.timeFunc()),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT access token",
			"error", err,
			"subject", subject,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign access token with HMAC-SHA256: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT access token and returns the claims if valid.
func (s *hmacTokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time {
			return now
		}),
		jwt.WithExpirationRequired(),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("access token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("access token validation failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("access token validation failed: malformed token", "error", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("access token validation failed: invalid signature", "error", err)
		default:
			log.Debug("access token validation failed: other validation error",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		log.Debug("token validation failed: wrong token type",
			"expected", TokenTypeAccess,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		log.Debug("token validation failed: missing subject")
		return nil, ErrInvalidToken
	}

	out := &Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		TokenType: claims.TokenType,
		ID:        claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	log.Debug("access token validated successfully",
		"subject", claims.Subject,
		"token_id", claims.ID,
		"expiry", out.ExpiresAt)

	return out, nil
}
