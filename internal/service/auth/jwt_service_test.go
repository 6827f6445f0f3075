package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfowler/remind-api/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	}
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)
}

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestJWTExpiry(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	impl := svc.(*hmacJWTService)

	issued := time.Now()
	impl.timeFunc = func() time.Time { return issued }

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	// Jump past lifetime plus clock skew leeway.
	impl.timeFunc = func() time.Time { return issued.Add(63 * time.Minute) }
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestJWTRejectsWrongKey(t *testing.T) {
	t.Parallel()

	issuer, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	other := testAuthConfig()
	other.JWTSecret = "ffffffffffffffffffffffffffffffff"
	validator, err := NewJWTService(other)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcryptTestCost)

	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse battery"))
	assert.Error(t, hasher.Compare(hash, "wrong password"))
}

// bcryptTestCost keeps hashing fast in tests.
const bcryptTestCost = 4
