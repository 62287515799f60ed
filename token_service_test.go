package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	auth "github.com/miradorn/go-credauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() auth.TokenService {
	return auth.NewTokenService(
		[]byte("test-signing-key"),
		"HS256",
		1,
		"test-issuer",
		jwt.ClaimStrings{"test:audience"},
		nil,
	)
}

func TestTokenServiceGenerate(t *testing.T) {
	service := newTestTokenService()

	identity := TestIdentity{
		id:    uuid.New().String(),
		email: "test@example.com",
	}

	token, err := service.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsedToken, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)
	require.True(t, parsedToken.Valid)

	claims, ok := parsedToken.Claims.(*auth.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, identity.ID(), claims.Subject())
	assert.Equal(t, identity.ID(), claims.UserID())
	assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test:audience"}, claims.RegisteredClaims.Audience)

	// expiry is one hour after issuance
	issuedAt := claims.IssuedAt()
	expires := claims.Expires()
	assert.Equal(t, time.Hour, expires.Sub(issuedAt))
}

func TestTokenServiceSigningMethod(t *testing.T) {
	identity := TestIdentity{
		id:    uuid.New().String(),
		email: "test@example.com",
	}

	t.Run("Configured method is used for signing", func(t *testing.T) {
		service := auth.NewTokenService(
			[]byte("test-signing-key"),
			"HS512",
			1,
			"",
			nil,
			nil,
		)

		token, err := service.Generate(identity)
		require.NoError(t, err)

		parsed, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		}, jwt.WithValidMethods([]string{"HS512"}))
		require.NoError(t, err)
		assert.Equal(t, "HS512", parsed.Header["alg"])

		claims, err := service.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.UserID())
	})

	t.Run("Rejects tokens signed with another method", func(t *testing.T) {
		hs512 := auth.NewTokenService(
			[]byte("test-signing-key"),
			"HS512",
			1,
			"",
			nil,
			nil,
		)

		token, err := hs512.Generate(identity)
		require.NoError(t, err)

		hs256 := auth.NewTokenService(
			[]byte("test-signing-key"),
			"HS256",
			1,
			"",
			nil,
			nil,
		)

		claims, err := hs256.Validate(token)
		assert.Nil(t, claims)
		assert.Error(t, err)
	})

	t.Run("Unknown method falls back to HS256", func(t *testing.T) {
		service := auth.NewTokenService(
			[]byte("test-signing-key"),
			"RS256",
			1,
			"",
			nil,
			nil,
		)

		token, err := service.Generate(identity)
		require.NoError(t, err)

		parsed, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "HS256", parsed.Header["alg"])
	})
}

func TestTokenServiceValidate(t *testing.T) {
	service := newTestTokenService()

	identity := TestIdentity{
		id:    uuid.New().String(),
		email: "test@example.com",
	}

	t.Run("Valid token", func(t *testing.T) {
		token, err := service.Generate(identity)
		require.NoError(t, err)

		claims, err := service.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.UserID())
		assert.True(t, claims.Expires().After(time.Now()))
	})

	t.Run("Expired token", func(t *testing.T) {
		expired := auth.NewTokenService(
			[]byte("test-signing-key"),
			"HS256",
			-1,
			"test-issuer",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)

		token, err := expired.Generate(identity)
		require.NoError(t, err)

		claims, err := service.Validate(token)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("Wrong signing key", func(t *testing.T) {
		other := auth.NewTokenService(
			[]byte("other-signing-key"),
			"HS256",
			1,
			"test-issuer",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)

		token, err := other.Generate(identity)
		require.NoError(t, err)

		claims, err := service.Validate(token)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)
	})

	t.Run("Malformed token", func(t *testing.T) {
		claims, err := service.Validate("not.a.token")
		assert.Nil(t, claims)
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		other := auth.NewTokenService(
			[]byte("test-signing-key"),
			"HS256",
			1,
			"other-issuer",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)

		token, err := other.Generate(identity)
		require.NoError(t, err)

		claims, err := service.Validate(token)
		assert.Nil(t, claims)
		assert.Error(t, err)
	})

	t.Run("Unexpected signing method", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": identity.ID(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		claims, err := service.Validate(raw)
		assert.Nil(t, claims)
		assert.Error(t, err)
	})
}
