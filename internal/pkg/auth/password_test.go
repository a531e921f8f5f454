package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("password123", 99)
	require.NoError(t, err)
	assert.True(t, CheckPassword("password123", hash))
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("password123", "not-a-bcrypt-hash"))
}
