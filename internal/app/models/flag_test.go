package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newFlag(status, subject, code string) *Resource {
	return NewResource("Flag", map[string]interface{}{
		"status":  status,
		"subject": map[string]interface{}{"reference": subject},
		"code": map[string]interface{}{
			"coding": []interface{}{map[string]interface{}{"code": code}},
		},
	})
}

func TestActiveFlagKey(t *testing.T) {
	t.Run("Active Flag", func(t *testing.T) {
		key, ok := ActiveFlagKey(newFlag("active", "Patient/p1", "hypertension"))
		assert.True(t, ok)
		assert.Equal(t, "Patient/p1|hypertension", key)
	})

	t.Run("Absolute Subject Canonicalised", func(t *testing.T) {
		key, ok := ActiveFlagKey(newFlag("active", "https://host/fhir/Patient/p1", "hypertension"))
		assert.True(t, ok)
		assert.Equal(t, "Patient/p1|hypertension", key)
	})

	t.Run("Inactive Flag", func(t *testing.T) {
		_, ok := ActiveFlagKey(newFlag("inactive", "Patient/p1", "hypertension"))
		assert.False(t, ok, "inactive flags do not occupy the uniqueness slot")
	})

	t.Run("Other Type", func(t *testing.T) {
		resource := newFlag("active", "Patient/p1", "hypertension")
		resource.ResourceType = "Observation"
		_, ok := ActiveFlagKey(resource)
		assert.False(t, ok)
	})
}

func TestFlagPeriodEnd(t *testing.T) {
	flag := newFlag("active", "Patient/p1", "fever")
	_, ok := FlagPeriodEnd(flag)
	assert.False(t, ok)

	flag.Set("period", map[string]interface{}{"end": "2024-02-01"})
	end, ok := FlagPeriodEnd(flag)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), end)
}
