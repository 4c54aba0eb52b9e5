package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_Roundtrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	got, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccessToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).ParseAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenManager_WrongAudience(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{"someone-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).ParseAccessToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}

func TestTokenManager_MissingSubject(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Issue("")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subject")
}

func TestTokenManager_Garbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).ParseAccessToken("not.a.token")
	assert.Error(t, err)
}
