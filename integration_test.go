package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	auth "github.com/miradorn/go-credauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Full flow against a real store: register, login, then hit a
// protected route with the issued bearer token.
func TestCredentialFlowIntegration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	cfg := &auth.AuthConfig{SigningKey: "integration-signing-key"}
	provider := auth.NewUserProvider(repo.Users())
	auther := auth.NewAuthenticator(provider, cfg)

	httpAuth, err := auth.NewHTTPAuthenticator(auther, cfg)
	require.NoError(t, err)

	register := auth.NewRegisterUserHandler(repo)

	var created *auth.User
	err = register.Execute(ctx, auth.RegisterUserMessage{
		Email:    "flow@example.com",
		Password: "password123",
		OnResponse: func(u *auth.User) {
			created = u
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// same email again is rejected by the store constraint
	err = register.Execute(ctx, auth.RegisterUserMessage{
		Email:    "flow@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)

	// wrong password and unknown email fail identically
	_, err = auther.Login(ctx, "flow@example.com", "wrong-password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = auther.Login(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	result, err := auther.Login(ctx, "flow@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, created.ID.String(), result.Identity.ID())

	// login leaves a trace on the record
	tracked, err := repo.Users().GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, tracked.LoggedInAt)

	protected := httpAuth.ProtectedRoute(cfg, httpAuth.MakeAPIAuthErrorHandler(false))
	handler := protected(func(c router.Context) error {
		return c.Next()
	})

	t.Run("Valid bearer token passes the gate", func(t *testing.T) {
		mc := router.NewMockContext()
		mc.HeadersM["Authorization"] = "Bearer " + result.Token
		mc.On("GetString", "Authorization", "").Return("Bearer " + result.Token)
		mc.On("Locals", "user", mock.Anything).Return(nil)
		mc.On("Context").Return(context.Background())
		mc.On("SetContext", mock.Anything).Return()

		require.NoError(t, handler(mc))
		assert.True(t, mc.NextCalled)
	})

	t.Run("No credential is forbidden", func(t *testing.T) {
		mc := router.NewMockContext()
		mc.On("GetString", "Authorization", "").Return("")
		mc.On("JSON", http.StatusForbidden, mock.Anything).Return(nil)

		require.NoError(t, handler(mc))
		assert.False(t, mc.NextCalled)
		mc.AssertExpectations(t)
	})

	t.Run("Expired token is unauthorized", func(t *testing.T) {
		expired := auth.NewTokenService(
			[]byte("integration-signing-key"),
			"HS256",
			-1,
			"",
			nil,
			nil,
		)
		token, err := expired.Generate(result.Identity)
		require.NoError(t, err)

		mc := router.NewMockContext()
		mc.HeadersM["Authorization"] = "Bearer " + token
		mc.On("GetString", "Authorization", "").Return("Bearer " + token)
		mc.On("JSON", http.StatusUnauthorized, mock.Anything).Return(nil)

		require.NoError(t, handler(mc))
		assert.False(t, mc.NextCalled)
		mc.AssertExpectations(t)
	})

	t.Run("Forged token is unauthorized", func(t *testing.T) {
		forged := auth.NewTokenService(
			[]byte("some-other-key"),
			"HS256",
			1,
			"",
			nil,
			nil,
		)
		token, err := forged.Generate(result.Identity)
		require.NoError(t, err)

		mc := router.NewMockContext()
		mc.HeadersM["Authorization"] = "Bearer " + token
		mc.On("GetString", "Authorization", "").Return("Bearer " + token)
		mc.On("JSON", http.StatusUnauthorized, mock.Anything).Return(nil)

		require.NoError(t, handler(mc))
		assert.False(t, mc.NextCalled)
		mc.AssertExpectations(t)
	})

	t.Run("Session round trip", func(t *testing.T) {
		session, err := auther.SessionFromToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, created.ID.String(), session.GetUserID())

		identity, err := auther.IdentityFromSession(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, "flow@example.com", identity.Email())
	})
}

// Claims shape matches what verification expects, end to end.
func TestIssuedTokenClaims(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)

	cfg := &auth.AuthConfig{
		SigningKey: "claims-signing-key",
		Issuer:     "credauth-test",
		Audience:   []string{"api:test"},
	}
	provider := auth.NewUserProvider(repo.Users())
	auther := auth.NewAuthenticator(provider, cfg)

	register := auth.NewRegisterUserHandler(repo)
	require.NoError(t, register.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "claims@example.com",
		Password: "password123",
	}))

	result, err := auther.Login(context.Background(), "claims@example.com", "password123")
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(result.Token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
		return []byte("claims-signing-key"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*auth.JWTClaims)
	assert.Equal(t, result.Identity.ID(), claims.Subject())
	assert.Equal(t, "credauth-test", claims.RegisteredClaims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"api:test"}, claims.RegisteredClaims.Audience)
	require.NotNil(t, claims.RegisteredClaims.ExpiresAt)
	assert.Equal(
		t,
		claims.RegisteredClaims.ExpiresAt.Sub(claims.RegisteredClaims.IssuedAt.Time),
		claims.Expires().Sub(claims.IssuedAt()),
	)
}
