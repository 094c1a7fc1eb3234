package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	tenantID := uint(7)

	token, err := util.GenerateToken(3, "alice", "alice@example.com", &tenantID, "alice")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(7), *claims.TenantID)
	assert.Equal(t, "alice", claims.TenantName)
}

func TestTokenWithoutTenant(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := util.GenerateToken(3, "bob", "bob@example.com", nil, "")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.TenantID)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	signer := NewJWTUtil(&config.JWTConfig{SigningKey: "one", ExpirationHours: 1})
	verifier := NewJWTUtil(&config.JWTConfig{SigningKey: "two", ExpirationHours: 1})

	token, err := signer.GenerateToken(1, "a", "a@example.com", nil, "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})
	util.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := util.GenerateToken(1, "a", "a@example.com", nil, "")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	require.Error(t, err)
	var validationErr *jwt.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
