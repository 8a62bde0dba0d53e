package models

import (
	"strings"
	"unicode"
)

// Reference is a soft pointer of the form "Type/id". Nothing enforces that
// the referent exists.
type Reference struct {
	Type string
	ID   string
}

// ParseReference accepts relative ("Patient/42"), absolute
// ("https://host/fhir/Patient/42") and versioned ("Patient/42/_history/3")
// references.
func ParseReference(raw string) (Reference, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, false
	}
	if idx := strings.Index(raw, "/_history/"); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.TrimSuffix(raw, "/")

	segments := strings.Split(raw, "/")
	if len(segments) < 2 {
		return Reference{}, false
	}
	resourceType := segments[len(segments)-2]
	id := segments[len(segments)-1]
	if !isResourceTypeName(resourceType) || id == "" {
		return Reference{}, false
	}
	return Reference{Type: resourceType, ID: id}, true
}

func FormatReference(resourceType, id string) string {
	return resourceType + "/" + id
}

// CanonicalReference rewrites value into "Type/id". A bare id is taken to
// point at targetType. Values that cannot be canonicalised are returned
// trimmed but otherwise untouched.
func CanonicalReference(value, targetType string) string {
	value = strings.TrimSpace(value)
	if ref, ok := ParseReference(value); ok {
		return ref.String()
	}
	if value != "" && targetType != "" && !strings.Contains(value, "/") {
		return FormatReference(targetType, value)
	}
	return value
}

func (r Reference) String() string {
	if r.IsZero() {
		return ""
	}
	return FormatReference(r.Type, r.ID)
}

func (r Reference) IsZero() bool {
	return r.Type == "" || r.ID == ""
}

func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reference) UnmarshalText(text []byte) error {
	parsed, _ := ParseReference(string(text))
	*r = parsed
	return nil
}

func isResourceTypeName(value string) bool {
	if value == "" {
		return false
	}
	for i, char := range value {
		if i == 0 && !unicode.IsUpper(char) {
			return false
		}
		if !unicode.IsLetter(char) {
			return false
		}
	}
	return true
}

// ResolvedReference is the outcome of a tolerant lookup. A dangling
// reference yields Resolved false and a nil Resource instead of an error.
type ResolvedReference struct {
	Reference Reference `json:"reference"`
	Resolved  bool      `json:"resolved"`
	Display   string    `json:"display"`
	Resource  *Resource `json:"resource,omitempty"`
}

const UnresolvedDisplay = "unknown"

func Unresolved(ref Reference) ResolvedReference {
	return ResolvedReference{
		Reference: ref,
		Resolved:  false,
		Display:   UnresolvedDisplay,
	}
}

func Resolved(resource *Resource) ResolvedReference {
	return ResolvedReference{
		Reference: resource.Reference(),
		Resolved:  true,
		Display:   displayOf(resource),
		Resource:  resource,
	}
}

func displayOf(resource *Resource) string {
	if names, ok := resource.Data["name"].([]interface{}); ok && len(names) > 0 {
		if name, ok := names[0].(map[string]interface{}); ok {
			if text, _ := name["text"].(string); text != "" {
				return text
			}
			parts := []string{}
			if given, ok := name["given"].([]interface{}); ok {
				for _, g := range given {
					if s, ok := g.(string); ok {
						parts = append(parts, s)
					}
				}
			}
			if family, _ := name["family"].(string); family != "" {
				parts = append(parts, family)
			}
			if len(parts) > 0 {
				return strings.Join(parts, " ")
			}
		}
	}
	if name, ok := resource.Data["name"].(string); ok && name != "" {
		return name
	}
	if title, ok := resource.Data["title"].(string); ok && title != "" {
		return title
	}
	return resource.Reference().String()
}
