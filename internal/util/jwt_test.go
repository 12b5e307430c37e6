package util

import (
	"testing"
	"time"

	"studybuddy_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	parent := &model.Parent{Email: "parent@example.com"}
	parent.ID = "parent-1"

	token, err := GenerateJWT(parent, "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "parent-1", claims.ParentID)
	assert.Equal(t, "parent@example.com", claims.Email)
}

func TestJWTWrongSecret(t *testing.T) {
	parent := &model.Parent{Email: "parent@example.com"}
	parent.ID = "parent-1"

	token, err := GenerateJWT(parent, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	parent := &model.Parent{Email: "parent@example.com"}
	parent.ID = "parent-1"

	token, err := GenerateJWT(parent, "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "test-secret")
	assert.Error(t, err)
}
