package jwt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "alice", "secret")
	require.NoError(t, err)

	claims, err := ValidateAndGetClaims(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "alice", claims["username"])

	parsed, err := UserIDFromClaims(claims)
	require.NoError(t, err)
	require.Equal(t, userID, parsed)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "alice", "secret")
	require.NoError(t, err)

	_, err = ValidateAndGetClaims(token, "other-secret")
	require.Error(t, err)
}
