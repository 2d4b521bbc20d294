package auth

import "context"

// MockTokenService is a mock implementation of TokenService for testing.
type MockTokenService struct {
	GenerateTokenFunc func(ctx context.Context, subject, email string) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	// Fixed fields for simple cases
	Token           string
	TokenError      error
	Claims          *Claims
	ValidationError error
}

// GenerateToken implements TokenService.
func (m *MockTokenService) GenerateToken(ctx context.Context, subject, email string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, subject, email)
	}
	return m.Token, m.TokenError
}

// ValidateToken implements TokenService.
func (m *MockTokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	return m.Claims, m.ValidationError
}
