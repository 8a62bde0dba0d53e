package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceJSON(t *testing.T) {
	raw := []byte(`{
		"resourceType": "Observation",
		"id": "obs-1",
		"meta": {"versionId": "3", "lastUpdated": "2024-01-15T10:00:00Z", "profile": ["http://example.org/bp"]},
		"status": "final",
		"subject": {"reference": "Patient/p1"},
		"_vendorExtension": {"anything": [1, 2, 3]}
	}`)

	t.Run("Decode Splits Envelope From Data", func(t *testing.T) {
		resource, err := ParseResource(raw)
		require.NoError(t, err)

		assert.Equal(t, "Observation", resource.ResourceType)
		assert.Equal(t, "obs-1", resource.ID)
		assert.Equal(t, 3, resource.Meta.VersionID, "string versionId should be accepted")
		assert.Equal(t, []string{"http://example.org/bp"}, resource.Meta.Profile)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), resource.Meta.LastUpdated.UTC())
		assert.NotContains(t, resource.Data, "resourceType")
		assert.NotContains(t, resource.Data, "meta")
		assert.Contains(t, resource.Data, "_vendorExtension", "unknown fields must be preserved")
	})

	t.Run("Encode Is Flat", func(t *testing.T) {
		resource, err := ParseResource(raw)
		require.NoError(t, err)

		encoded, err := json.Marshal(resource)
		require.NoError(t, err)

		var document map[string]interface{}
		require.NoError(t, json.Unmarshal(encoded, &document))
		assert.Equal(t, "Observation", document["resourceType"])
		assert.Equal(t, "obs-1", document["id"])
		assert.Equal(t, "final", document["status"])
		assert.Contains(t, document, "_vendorExtension")
		meta := document["meta"].(map[string]interface{})
		assert.Equal(t, float64(3), meta["versionId"])
	})

	t.Run("Invalid Version", func(t *testing.T) {
		_, err := ParseResource([]byte(`{"resourceType":"Patient","meta":{"versionId":"x"}}`))
		assert.Error(t, err)
	})
}

func TestResourceClone(t *testing.T) {
	original := NewResource("Patient", map[string]interface{}{
		"name": []interface{}{map[string]interface{}{"family": "Silva"}},
	})
	original.Meta.Profile = []string{"p"}

	clone := original.Clone()
	clone.Data["name"].([]interface{})[0].(map[string]interface{})["family"] = "Souza"
	clone.Meta.Profile[0] = "changed"

	family := original.Data["name"].([]interface{})[0].(map[string]interface{})["family"]
	assert.Equal(t, "Silva", family, "mutating the clone must not reach the original")
	assert.Equal(t, "p", original.Meta.Profile[0])
}

func TestResourceAccessors(t *testing.T) {
	resource := NewResource("Flag", map[string]interface{}{
		"status":  "active",
		"subject": map[string]interface{}{"reference": "https://fhir.example.org/Patient/p1"},
		"code": map[string]interface{}{
			"coding": []interface{}{
				map[string]interface{}{"system": "s", "code": "hypertension"},
			},
		},
	})

	assert.Equal(t, Reference{Type: "Patient", ID: "p1"}, resource.SubjectReference())
	system, code := resource.CodingCode("code")
	assert.Equal(t, "s", system)
	assert.Equal(t, "hypertension", code)
	assert.Equal(t, []string{"hypertension"}, resource.Codings("code"))
	assert.Equal(t, "", resource.GetString("missing", "path"))
}
