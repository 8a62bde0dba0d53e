package models

import (
	"maternity-service/internal/pkg/constvars"
	"time"
)

// ActiveFlagKey derives the uniqueness key of an active Flag. It returns
// false for any resource that does not occupy a uniqueness slot.
func ActiveFlagKey(resource *Resource) (string, bool) {
	if resource == nil || resource.ResourceType != constvars.ResourceFlag {
		return "", false
	}
	if resource.GetString("status") != constvars.FhirFlagStatusActive {
		return "", false
	}
	subject := resource.SubjectReference()
	_, code := resource.CodingCode("code")
	if subject.IsZero() || code == "" {
		return "", false
	}
	return FlagKey(subject, code), true
}

func FlagKey(subject Reference, conditionCode string) string {
	return subject.String() + "|" + conditionCode
}

// FlagPeriodEnd returns period.end when present and parseable.
func FlagPeriodEnd(resource *Resource) (time.Time, bool) {
	raw := resource.GetString("period", "end")
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
