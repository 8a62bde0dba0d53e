package utils

import (
	"maternity-service/internal/pkg/constvars"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateResourceID(t *testing.T) {
	t.Run("Type Prefix", func(t *testing.T) {
		id := GenerateResourceID(constvars.ResourceObservation)
		assert.True(t, strings.HasPrefix(id, "obs-"), "observation ids should carry the obs prefix, got %s", id)

		id = GenerateResourceID(constvars.ResourceFlag)
		assert.True(t, strings.HasPrefix(id, "flag-"), "unmapped types fall back to the lowercased type, got %s", id)
	})

	t.Run("Unique And Ordered", func(t *testing.T) {
		seen := make(map[string]bool)
		previous := ""
		for i := 0; i < 1000; i++ {
			id := GenerateResourceID(constvars.ResourcePatient)
			assert.False(t, seen[id], "id %s generated twice", id)
			seen[id] = true
			if previous != "" {
				assert.Less(t, previous, id, "ids generated in sequence should sort in creation order")
			}
			previous = id
		}
	})
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	assert.True(t, strings.HasPrefix(id, constvars.REQUEST_ID_PREFIX), "request id should carry the service prefix")
	assert.NotEqual(t, id, GenerateRequestID(), "request ids should be unique")
}
