package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/scry-bootstrap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func testConfig(secret string) config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            secret,
		TokenLifetimeMinutes: 60,
	}
}

func newTestService(t *testing.T, secret string, now time.Time) *hmacTokenService {
	t.Helper()
	svc, err := newHMACTokenService(testConfig(secret), func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService(testConfig("short"))
	assert.Error(t, err)

	cfg := testConfig(testSecret)
	cfg.TokenLifetimeMinutes = 0
	_, err = NewTokenService(cfg)
	assert.Error(t, err)

	svc, err := NewTokenService(testConfig(testSecret))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, testSecret, fixedTime)

	token, err := svc.GenerateToken(context.Background(), "user-42", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), "", "")
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	signRaw := func(claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name      string
		setupFunc func() (TokenService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func() (TokenService, string) {
				svc := newTestService(t, testSecret, fixedTime)
				token, _ := svc.GenerateToken(context.Background(), "user-42", "")
				return svc, token
			},
		},
		{
			name: "expired token",
			setupFunc: func() (TokenService, string) {
				token, _ := newTestService(t, testSecret, fixedTime).
					GenerateToken(context.Background(), "user-42", "")
				return newTestService(t, testSecret, fixedTime.Add(2*time.Hour)), token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			setupFunc: func() (TokenService, string) {
				token := signRaw(jwtCustomClaims{
					TokenType: TokenTypeAccess,
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "user-42",
						NotBefore: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(2 * time.Hour)),
					},
				})
				return newTestService(t, testSecret, fixedTime), token
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			setupFunc: func() (TokenService, string) {
				token, _ := newTestService(t, testSecret, fixedTime).
					GenerateToken(context.Background(), "user-42", "")
				return newTestService(t, wrongSecret, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setupFunc: func() (TokenService, string) {
				return newTestService(t, testSecret, fixedTime), "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "empty token",
			setupFunc: func() (TokenService, string) {
				return newTestService(t, testSecret, fixedTime), ""
			},
			wantErr: ErrMissingToken,
		},
		{
			name: "refresh token presented as access token",
			setupFunc: func() (TokenService, string) {
				token := signRaw(jwtCustomClaims{
					TokenType: "refresh",
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "user-42",
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				})
				return newTestService(t, testSecret, fixedTime), token
			},
			wantErr: ErrWrongTokenType,
		},
		{
			name: "missing expiry",
			setupFunc: func() (TokenService, string) {
				token := signRaw(jwtCustomClaims{
					TokenType:        TokenTypeAccess,
					RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
				})
				return newTestService(t, testSecret, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing subject",
			setupFunc: func() (TokenService, string) {
				token := signRaw(jwtCustomClaims{
					TokenType: TokenTypeAccess,
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				})
				return newTestService(t, testSecret, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, token := tt.setupFunc()
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "user-42", claims.Subject)
			}
		})
	}
}

func TestValidateToken_ClockSkew(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig(testSecret)
	cfg.ClockSkewSeconds = 120

	issuer, err := newHMACTokenService(cfg, func() time.Time { return fixedTime })
	require.NoError(t, err)
	token, err := issuer.GenerateToken(context.Background(), "user-42", "")
	require.NoError(t, err)

	// one minute past expiry is still inside the leeway
	late, err := newHMACTokenService(cfg, func() time.Time { return fixedTime.Add(61 * time.Minute) })
	require.NoError(t, err)
	_, err = late.ValidateToken(context.Background(), token)
	assert.NoError(t, err)
}
