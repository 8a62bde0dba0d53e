package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessToken(t *testing.T) {
	const secret = "test-secret"

	t.Run("Valid Token", func(t *testing.T) {
		token, err := GenerateAccessToken("patient-1", "patient", "fac-1", "", secret, time.Hour)
		require.NoError(t, err)

		claims, err := ParseAccessToken(token, secret)
		require.NoError(t, err)
		assert.Equal(t, "patient-1", claims.Subject)
		assert.Equal(t, "patient", claims.Role)
		assert.Equal(t, "fac-1", claims.FacilityID)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := GenerateAccessToken("patient-1", "patient", "", "", secret, time.Hour)
		require.NoError(t, err)

		_, err = ParseAccessToken(token, "other-secret")
		assert.Error(t, err, "token signed with another secret must be rejected")
	})

	t.Run("Expired Token", func(t *testing.T) {
		token, err := GenerateAccessToken("patient-1", "patient", "", "", secret, -time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(token, secret)
		assert.Error(t, err, "expired token must be rejected")
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseAccessToken("not-a-token", secret)
		assert.Error(t, err)
	})
}
