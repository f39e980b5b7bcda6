package common

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.True(t, claims.IsMentor)
	assert.Equal(t, "doubtdesk", claims.Issuer)
}

func TestValidToken_RejectsGarbage(t *testing.T) {
	_, err := ValidToken("not.a.token")
	assert.Error(t, err)

	_, err = ValidToken("")
	assert.Error(t, err)
}

// The signing key must track the environment at call time, so a secret that
// only becomes visible after the .env load still takes effect.
func TestTokenSecretReadPerCall(t *testing.T) {
	os.Setenv("JWT_SECRET", "first-secret")
	defer os.Unsetenv("JWT_SECRET")

	token, err := GenerateToken(7, false)
	require.NoError(t, err)
	_, err = ValidToken(token)
	require.NoError(t, err)

	// Rotating the secret invalidates tokens signed under the old one.
	os.Setenv("JWT_SECRET", "second-secret")
	_, err = ValidToken(token)
	assert.Error(t, err)
}

func TestValidToken_RejectsTampering(t *testing.T) {
	token, err := GenerateToken(7, false)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = ValidToken(tampered)
	assert.Error(t, err)
}
