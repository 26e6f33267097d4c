package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.GenerateToken(5, 2, "gate-staff", "staff")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, uint(2), claims.TenantID)
	assert.Equal(t, "gate-staff", claims.Username)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "EventHouse", claims.Issuer)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := NewJWTManager("test-secret", time.Hour).GenerateToken(5, 2, "gate-staff", "staff")
	require.NoError(t, err)

	_, err = NewJWTManager("other-secret", time.Hour).VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	token, err := manager.GenerateToken(5, 2, "gate-staff", "staff")
	require.NoError(t, err)

	_, err = manager.VerifyToken(token)
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.GenerateToken(5, 2, "organizer", "organizer")
	require.NoError(t, err)

	refreshed, err := manager.RefreshToken(token)
	require.NoError(t, err)

	claims, err := manager.VerifyToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, uint(2), claims.TenantID)
	assert.Equal(t, "organizer", claims.Role)
}
