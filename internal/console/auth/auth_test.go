package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPasswordHashAndCheck(t *testing.T) {
	password, err := NewPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", password.String())

	require.True(t, CheckPassword("correct horse battery staple", password.String()))
	require.False(t, CheckPassword("wrong", password.String()))
	require.False(t, CheckPassword("", password.String()))
}

func TestTokenRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret")

	token, err := signer.CreateToken(Identity{
		AccountID: "acc-1",
		Username:  "wanderer",
		IsAdmin:   true,
	})
	require.NoError(t, err)

	identity, err := signer.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", identity.AccountID)
	require.Equal(t, "wanderer", identity.Username)
	require.True(t, identity.IsAdmin)
}

func TestTokenExpiry(t *testing.T) {
	signer := NewSigner("test-secret")

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	token, err := signer.CreateToken(Identity{AccountID: "acc-1", Username: "wanderer"})
	require.NoError(t, err)

	// Still valid just before the 72 hour mark.
	signer.now = func() time.Time { return issued.Add(TokenExpiry - time.Minute) }
	_, err = signer.VerifyToken(token)
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(TokenExpiry + time.Minute) }
	_, err = signer.VerifyToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewSigner("secret-a").CreateToken(Identity{AccountID: "acc-1"})
	require.NoError(t, err)

	_, err = NewSigner("secret-b").VerifyToken(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenGarbage(t *testing.T) {
	signer := NewSigner("test-secret")

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := signer.VerifyToken(token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	}
}
