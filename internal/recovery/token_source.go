package recovery

import (
	"context"
	"errors"

	"github.com/phrazzld/scry-bootstrap/internal/service/auth"
	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// TokenSourceName is the name recorded for identities recovered by token introspection.
const TokenSourceName = "token"

// TokenSource recovers the identity by introspecting a persisted access token.
type TokenSource struct {
	tokens   auth.TokenService
	store    store.StateStore
	key      string
	priority int
}

// NewTokenSource creates a TokenSource validating the token stored under key.
func NewTokenSource(tokens auth.TokenService, st store.StateStore, key string, priority int) *TokenSource {
	return &TokenSource{tokens: tokens, store: st, key: key, priority: priority}
}

// Name implements Source.
func (s *TokenSource) Name() string { return TokenSourceName }

// Priority implements Source.
func (s *TokenSource) Priority() int { return s.priority }

// Fetch implements Source. A missing, expired or otherwise invalid token
// yields no identity.
func (s *TokenSource) Fetch(ctx context.Context) (*Identity, error) {
	token, err := s.store.Get(ctx, s.key)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		if isRejectedToken(err) {
			return nil, nil
		}
		return nil, err
	}

	identity := &Identity{ID: claims.Subject, Email: claims.Email}
	if claims.ID != "" {
		identity.Attributes = map[string]string{"token_id": claims.ID}
	}
	return identity, nil
}

func isRejectedToken(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrTokenNotYetValid) ||
		errors.Is(err, auth.ErrWrongTokenType) ||
		errors.Is(err, auth.ErrMissingToken)
}
