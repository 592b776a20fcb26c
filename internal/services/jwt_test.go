package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betwise-backend/internal/config"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})

	token, err := svc.GenerateToken(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.SessionID)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(&config.Config{JWTSecret: "secret-a", JWTExpiry: time.Hour})
	verifier := NewJWTService(&config.Config{JWTSecret: "secret-b", JWTExpiry: time.Hour})

	token, err := issuer.GenerateToken(1, "bob")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecret: "test-secret", JWTExpiry: -time.Minute})

	token, err := svc.GenerateToken(1, "carol")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
