package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	fieldResourceType = "resourceType"
	fieldID           = "id"
	fieldMeta         = "meta"
)

type Meta struct {
	VersionID   int       `json:"versionId" bson:"versionId"`
	LastUpdated time.Time `json:"lastUpdated" bson:"lastUpdated"`
	Profile     []string  `json:"profile,omitempty" bson:"profile,omitempty"`
}

// Resource is a single versioned, typed document. Data holds every payload
// field other than resourceType, id and meta, including fields the service
// does not understand.
type Resource struct {
	ResourceType string
	ID           string
	Meta         Meta
	Data         map[string]interface{}
}

func NewResource(resourceType string, data map[string]interface{}) *Resource {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &Resource{
		ResourceType: resourceType,
		Data:         data,
	}
}

// ParseResource decodes a flat FHIR JSON document.
func ParseResource(raw []byte) (*Resource, error) {
	resource := &Resource{}
	if err := json.Unmarshal(raw, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func (r Resource) MarshalJSON() ([]byte, error) {
	document := make(map[string]interface{}, len(r.Data)+3)
	for key, value := range r.Data {
		document[key] = value
	}
	document[fieldResourceType] = r.ResourceType
	if r.ID != "" {
		document[fieldID] = r.ID
	}
	if r.Meta.VersionID > 0 {
		document[fieldMeta] = r.Meta
	}
	return json.Marshal(document)
}

func (r *Resource) UnmarshalJSON(raw []byte) error {
	document := make(map[string]interface{})
	if err := json.Unmarshal(raw, &document); err != nil {
		return err
	}

	resourceType, _ := document[fieldResourceType].(string)
	id, _ := document[fieldID].(string)
	r.ResourceType = resourceType
	r.ID = id

	if rawMeta, ok := document[fieldMeta].(map[string]interface{}); ok {
		meta, err := parseMeta(rawMeta)
		if err != nil {
			return err
		}
		r.Meta = meta
	}

	delete(document, fieldResourceType)
	delete(document, fieldID)
	delete(document, fieldMeta)
	r.Data = document
	return nil
}

func parseMeta(rawMeta map[string]interface{}) (Meta, error) {
	meta := Meta{}
	switch version := rawMeta["versionId"].(type) {
	case float64:
		meta.VersionID = int(version)
	case string:
		parsed, err := strconv.Atoi(version)
		if err != nil {
			return meta, fmt.Errorf("meta.versionId %q is not an integer", version)
		}
		meta.VersionID = parsed
	}
	if lastUpdated, ok := rawMeta["lastUpdated"].(string); ok && lastUpdated != "" {
		parsed, err := time.Parse(time.RFC3339Nano, lastUpdated)
		if err != nil {
			return meta, fmt.Errorf("meta.lastUpdated %q is not a timestamp", lastUpdated)
		}
		meta.LastUpdated = parsed
	}
	if profiles, ok := rawMeta["profile"].([]interface{}); ok {
		for _, profile := range profiles {
			if value, ok := profile.(string); ok {
				meta.Profile = append(meta.Profile, value)
			}
		}
	}
	return meta, nil
}

// Clone returns a deep copy so callers can never alias stored state.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	clone := &Resource{
		ResourceType: r.ResourceType,
		ID:           r.ID,
		Meta:         r.Meta,
	}
	if r.Meta.Profile != nil {
		clone.Meta.Profile = append([]string(nil), r.Meta.Profile...)
	}
	clone.Data, _ = deepCopy(r.Data).(map[string]interface{})
	if clone.Data == nil {
		clone.Data = make(map[string]interface{})
	}
	return clone
}

func deepCopy(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		copied := make(map[string]interface{}, len(typed))
		for key, nested := range typed {
			copied[key] = deepCopy(nested)
		}
		return copied
	case []interface{}:
		copied := make([]interface{}, len(typed))
		for i, nested := range typed {
			copied[i] = deepCopy(nested)
		}
		return copied
	default:
		return typed
	}
}

func (r *Resource) Reference() Reference {
	return Reference{Type: r.ResourceType, ID: r.ID}
}

// Lookup walks nested objects by key and returns the value found, if any.
func (r *Resource) Lookup(path ...string) (interface{}, bool) {
	var current interface{} = r.Data
	for _, key := range path {
		object, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = object[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (r *Resource) GetString(path ...string) string {
	value, ok := r.Lookup(path...)
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return text
}

func (r *Resource) GetBool(path ...string) bool {
	value, ok := r.Lookup(path...)
	if !ok {
		return false
	}
	flag, _ := value.(bool)
	return flag
}

func (r *Resource) Set(key string, value interface{}) {
	if r.Data == nil {
		r.Data = make(map[string]interface{})
	}
	r.Data[key] = value
}

// SubjectReference returns the canonical subject (or patient) reference.
func (r *Resource) SubjectReference() Reference {
	for _, key := range []string{"subject", "patient"} {
		if raw := r.GetString(key, "reference"); raw != "" {
			if ref, ok := ParseReference(raw); ok {
				return ref
			}
		}
	}
	return Reference{}
}

// CodingCode returns the first coding code of a CodeableConcept field.
func (r *Resource) CodingCode(field string) (system string, code string) {
	value, ok := r.Lookup(field, "coding")
	if !ok {
		return "", ""
	}
	codings, ok := value.([]interface{})
	if !ok {
		return "", ""
	}
	for _, entry := range codings {
		coding, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		code, _ := coding["code"].(string)
		if code == "" {
			continue
		}
		system, _ := coding["system"].(string)
		return system, code
	}
	return "", ""
}

// Codings lists every code of a CodeableConcept field.
func (r *Resource) Codings(field string) []string {
	value, ok := r.Lookup(field, "coding")
	if !ok {
		return nil
	}
	entries, ok := value.([]interface{})
	if !ok {
		return nil
	}
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		if coding, ok := entry.(map[string]interface{}); ok {
			if code, _ := coding["code"].(string); code != "" {
				codes = append(codes, code)
			}
		}
	}
	return codes
}
