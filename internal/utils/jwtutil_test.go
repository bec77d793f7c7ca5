package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestGenerateAndParseToken(t *testing.T) {
	token, exp, err := GenerateToken(testSecret, 42, "cashier@ventra.local", "cashier", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserId)
	assert.Equal(t, "cashier@ventra.local", claims.Email)
	assert.Equal(t, "cashier", claims.Role)
	assert.Equal(t, "cashier@ventra.local", claims.RegisteredClaims.Subject)
}

func TestParseTokenExpired(t *testing.T) {
	token, _, err := GenerateToken(testSecret, 1, "admin@ventra.local", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, err := GenerateToken(testSecret, 1, "admin@ventra.local", "admin", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other-secret"), token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not-a-token")
	assert.Error(t, err)
}
