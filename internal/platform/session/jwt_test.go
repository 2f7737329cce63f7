package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "doseguard/pkg/domain-errors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-key", "doseguard", "patient-app")

	token, err := svc.GenerateToken("patient-1", "device-9", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "patient-1", claims.Subject)
	assert.Equal(t, "device-9", claims.DeviceID)
	assert.NotEmpty(t, claims.JTI)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-key", "doseguard", "patient-app")

	t.Run("expired token", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := svc.GenerateToken("patient-1", "", time.Minute)
		require.NoError(t, err)
		svc.now = time.Now

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewJWTService("other-key", "doseguard", "patient-app")
		token, err := other.GenerateToken("patient-1", "", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTService("test-key", "doseguard", "admin-console")
		token, err := other.GenerateToken("patient-1", "", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
