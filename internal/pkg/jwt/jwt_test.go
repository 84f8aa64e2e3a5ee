package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute)
	id := uuid.NewString()

	token, exp, err := signer.GenerateSessionToken(id)
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.True(t, exp.After(time.Now()))

	auth, err := signer.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, auth.SessionID)
}

func TestValidateSessionTokenRejects(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute)
	token, _, err := signer.GenerateSessionToken(uuid.NewString())
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewSigner("another-secret", time.Minute).ValidateSessionToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, _, err := NewSigner("test-secret", -time.Minute).GenerateSessionToken(uuid.NewString())
		require.NoError(t, err)
		_, err = signer.ValidateSessionToken(expired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("not a uuid", func(t *testing.T) {
		bad, _, err := signer.GenerateSessionToken("not-a-session")
		require.NoError(t, err)
		_, err = signer.ValidateSessionToken(bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := signer.ValidateSessionToken("abc.def.ghi")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
