package mongodb

import (
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/search"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	fieldKey           = "_id"
	fieldResourceType  = "resourceType"
	fieldVersionID     = "meta.versionId"
	fieldSearch        = "_search"
	fieldSequence      = "seq"
	fieldActiveFlagKey = "activeFlagKey"
)

// resourceDocument is the persisted shape of a resource. The payload lives
// in Data; Search holds the derived index the filters run against.
type resourceDocument struct {
	Key           string                 `bson:"_id"`
	ResourceType  string                 `bson:"resourceType"`
	ID            string                 `bson:"id"`
	Meta          models.Meta            `bson:"meta"`
	Data          map[string]interface{} `bson:"data"`
	Search        search.Index           `bson:"_search"`
	Sequence      int64                  `bson:"seq"`
	ActiveFlagKey string                 `bson:"activeFlagKey,omitempty"`
}

// storedDocument is the read side. Data stays raw so numbers and nested
// arrays come back with their JSON types rather than driver primitives.
type storedDocument struct {
	ResourceType string      `bson:"resourceType"`
	ID           string      `bson:"id"`
	Meta         models.Meta `bson:"meta"`
	Data         bson.Raw    `bson:"data"`
	Sequence     int64       `bson:"seq"`
}

func documentKey(resourceType, id string) string {
	return models.FormatReference(resourceType, id)
}

func toDocument(resource *models.Resource, sequence int64) (*resourceDocument, error) {
	index, err := search.Extract(resource)
	if err != nil {
		return nil, err
	}
	document := &resourceDocument{
		Key:          documentKey(resource.ResourceType, resource.ID),
		ResourceType: resource.ResourceType,
		ID:           resource.ID,
		Meta:         resource.Meta,
		Data:         resource.Data,
		Search:       index,
		Sequence:     sequence,
	}
	if key, ok := models.ActiveFlagKey(resource); ok {
		document.ActiveFlagKey = key
	}
	return document, nil
}

func (d *storedDocument) toResource() (*models.Resource, error) {
	data := make(map[string]interface{})
	if len(d.Data) > 0 {
		raw, err := bson.MarshalExtJSON(d.Data, false, false)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
	}
	resource := models.NewResource(d.ResourceType, data)
	resource.ID = d.ID
	resource.Meta = models.Meta{
		VersionID:   d.Meta.VersionID,
		LastUpdated: d.Meta.LastUpdated.UTC(),
		Profile:     d.Meta.Profile,
	}
	return resource, nil
}
