package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/v1/catalog/ping", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestJWTResolver(t *testing.T) {
	t.Parallel()

	resolver := NewJWTResolver(testSecret, "sneakdex")

	t.Run("valid token resolves subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "sneakdex",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		require.Equal(t, "user-42", resolver.Resolve(requestWithToken(token)))
	})

	t.Run("missing header is anonymous", func(t *testing.T) {
		require.Empty(t, resolver.Resolve(requestWithToken("")))
	})

	t.Run("garbage token is anonymous", func(t *testing.T) {
		require.Empty(t, resolver.Resolve(requestWithToken("not-a-jwt")))
	})

	t.Run("wrong signature is anonymous", func(t *testing.T) {
		token := signToken(t, []byte("other-secret"), jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "sneakdex",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		require.Empty(t, resolver.Resolve(requestWithToken(token)))
	})

	t.Run("expired token is anonymous", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "sneakdex",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})

		require.Empty(t, resolver.Resolve(requestWithToken(token)))
	})

	t.Run("wrong issuer is anonymous", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		require.Empty(t, resolver.Resolve(requestWithToken(token)))
	})
}
