package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	InitializeJWT("access-secret", "refresh-secret")

	token, expiresIn, err := GenerateToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 900, expiresIn)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)

	// Access tokens are not valid refresh tokens and vice versa
	_, err = ValidateRefreshToken(token)
	assert.Error(t, err)

	refresh, expires, err := GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), expires, time.Minute)

	claims, err = ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)

	_, err = ValidateToken(refresh)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("abc123")
	require.NoError(t, err)
	assert.NotEqual(t, "abc123", hash)

	assert.NoError(t, VerifyPassword("abc123", hash))
	assert.Error(t, VerifyPassword("abc124", hash))
}
