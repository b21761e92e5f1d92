package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "pc-discussion-scheduler",
	})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken("  chair@pc.example ")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "chair@pc.example", claims.Operator)
	assert.Equal(t, "chair@pc.example", claims.Subject)
}

func TestAuthServiceIssueRequiresOperator(t *testing.T) {
	_, _, err := newTestAuthService().IssueToken(" ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceRejectsForeignSecret(t *testing.T) {
	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "pc-discussion-scheduler"})
	token, _, err := other.IssueToken("chair")
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	claims := &models.JWTClaims{
		Operator: "chair",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pc-discussion-scheduler",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	foreign := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "someone-else"})
	token, _, err := foreign.IssueToken("chair")
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
