package token_test

import (
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/token"
)

func mintToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestDecode(t *testing.T) {
	t.Run("full claim set", func(t *testing.T) {
		raw := mintToken(t, jwtlib.MapClaims{
			"sub":       "user-1",
			"email":     "john.doe@example.com",
			"firstName": "John",
			"lastName":  "Doe",
			"verified":  true,
			"iat":       1700000000,
		})
		claims := token.Decode(raw)
		require.NotNil(t, claims)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "john.doe@example.com", claims.Email)
		require.Equal(t, "John", claims.FirstName)
		require.Equal(t, "Doe", claims.LastName)
		require.True(t, claims.Verified)
		require.Contains(t, claims.Extra, "iat")
	})

	t.Run("_id wins over id and sub", func(t *testing.T) {
		raw := mintToken(t, jwtlib.MapClaims{"sub": "from-sub", "id": "from-id", "_id": "from-mongo"})
		claims := token.Decode(raw)
		require.NotNil(t, claims)
		require.Equal(t, "from-mongo", claims.Subject)
	})

	t.Run("isVerified alias accepted", func(t *testing.T) {
		raw := mintToken(t, jwtlib.MapClaims{"sub": "user-1", "isVerified": true})
		claims := token.Decode(raw)
		require.NotNil(t, claims)
		require.True(t, claims.Verified)
	})

	t.Run("not a jwt", func(t *testing.T) {
		require.Nil(t, token.Decode("not-a-jwt"))
	})

	t.Run("garbage segments", func(t *testing.T) {
		require.Nil(t, token.Decode("aaa.%%%.ccc"))
	})

	t.Run("empty string", func(t *testing.T) {
		require.Nil(t, token.Decode(""))
	})
}

func TestClaimsUser(t *testing.T) {
	t.Run("identity from claims", func(t *testing.T) {
		raw := mintToken(t, jwtlib.MapClaims{"sub": "user-1", "firstName": "John", "verified": true})
		user := token.Decode(raw).User()
		require.NotNil(t, user)
		require.Equal(t, "user-1", user.ID)
		require.Equal(t, "John", user.FirstName)
		require.True(t, user.IsVerified)
	})

	t.Run("no identity claims yields nil", func(t *testing.T) {
		raw := mintToken(t, jwtlib.MapClaims{"iat": 1700000000, "exp": 1700003600})
		require.Nil(t, token.Decode(raw).User())
	})

	t.Run("nil claims yields nil", func(t *testing.T) {
		var claims *token.Claims
		require.Nil(t, claims.User())
	})
}
