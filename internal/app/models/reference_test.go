package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Reference
		ok       bool
	}{
		{"Relative", "Patient/42", Reference{"Patient", "42"}, true},
		{"Absolute", "https://fhir.example.org/fhir/Patient/42", Reference{"Patient", "42"}, true},
		{"Versioned", "Patient/42/_history/3", Reference{"Patient", "42"}, true},
		{"Padded", "  Practitioner/d1 ", Reference{"Practitioner", "d1"}, true},
		{"Bare Id", "42", Reference{}, false},
		{"Lowercase Type", "patient/42", Reference{}, false},
		{"Empty", "", Reference{}, false},
		{"Missing Id", "Patient/", Reference{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ParseReference(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestCanonicalReference(t *testing.T) {
	assert.Equal(t, "Patient/42", CanonicalReference("42", "Patient"), "bare id should be rewritten to the target type")
	assert.Equal(t, "Patient/42", CanonicalReference("Patient/42", "Practitioner"), "typed references keep their own type")
	assert.Equal(t, "Patient/42", CanonicalReference("http://host/Patient/42", ""))
	assert.Equal(t, "42", CanonicalReference("42", ""), "without a target type the value is kept")
	assert.Equal(t, "", CanonicalReference("", "Patient"))
}

func TestUnresolved(t *testing.T) {
	resolved := Unresolved(Reference{"Patient", "gone"})
	assert.False(t, resolved.Resolved)
	assert.Nil(t, resolved.Resource)
	assert.Equal(t, UnresolvedDisplay, resolved.Display)
}

func TestResolvedDisplay(t *testing.T) {
	patient := NewResource("Patient", map[string]interface{}{
		"name": []interface{}{map[string]interface{}{"given": []interface{}{"Ana"}, "family": "Silva"}},
	})
	patient.ID = "p1"

	resolved := Resolved(patient)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "Ana Silva", resolved.Display)
}
