package authorization

import (
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/search"
	"strings"
)

// scopeParams are the search parameters a restricted principal may use to
// narrow a listing to its own data.
var scopeParams = []string{"subject", "patient", "recipient"}

// ownersOf lists every reference that makes a principal an owner of resource.
// A subject or patient reference is the sole owner when present. Appointment
// participants and Communication recipients only count when it is absent.
func ownersOf(resource *models.Resource) []models.Reference {
	if resource == nil {
		return nil
	}
	switch resource.ResourceType {
	case constvars.ResourcePatient, constvars.ResourcePractitioner:
		return []models.Reference{resource.Reference()}
	}

	if subject := resource.SubjectReference(); !subject.IsZero() {
		return []models.Reference{subject}
	}
	switch resource.ResourceType {
	case constvars.ResourceAppointment:
		return referencesIn(resource, "participant", "actor")
	case constvars.ResourceCommunication:
		return referencesIn(resource, "recipient")
	}
	return nil
}

// referencesIn collects the references found in an array field, optionally
// nested one object deeper.
func referencesIn(resource *models.Resource, field string, nested ...string) []models.Reference {
	value, ok := resource.Lookup(field)
	if !ok {
		return nil
	}
	entries, ok := value.([]interface{})
	if !ok {
		return nil
	}

	var references []models.Reference
	for _, entry := range entries {
		object, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range nested {
			object, ok = object[key].(map[string]interface{})
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		raw, _ := object["reference"].(string)
		if ref, ok := models.ParseReference(raw); ok {
			references = append(references, ref)
		}
	}
	return references
}

func isOwnedBy(resource *models.Resource, owner models.Reference) bool {
	for _, candidate := range ownersOf(resource) {
		if candidate == owner {
			return true
		}
	}
	return false
}

// isScopedTo reports whether a search can only return data of owner. At
// least one scope parameter must be present and every value of every
// present scope parameter must point at owner.
func isScopedTo(resourceType string, params map[string]string, owner models.Reference) bool {
	if resourceType == owner.Type {
		return allValuesMatch(params[search.ParamID], func(value string) bool {
			return value == owner.ID
		})
	}

	scoped := false
	for _, name := range scopeParams {
		value, present := params[name]
		if !present {
			continue
		}
		definition, ok := search.Lookup(resourceType, name)
		if !ok {
			continue
		}
		matches := allValuesMatch(value, func(value string) bool {
			return models.CanonicalReference(value, definition.TargetType) == owner.String()
		})
		if !matches {
			return false
		}
		scoped = true
	}
	return scoped
}

func allValuesMatch(raw string, match func(string) bool) bool {
	values := splitValues(raw)
	if len(values) == 0 {
		return false
	}
	for _, value := range values {
		if !match(value) {
			return false
		}
	}
	return true
}

func splitValues(raw string) []string {
	var values []string
	for _, value := range strings.Split(raw, ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}
