// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTokenRoundTrip(t *testing.T) {
	Init()

	id := uuid.New().String()
	token, err := CreateJWT(id)
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, sub)

	_, err = AuthenticateJWT(token + "tampered")
	assert.Error(t, err)

	_, err = AuthenticateJWT("not-a-jwt")
	assert.Error(t, err)
}
