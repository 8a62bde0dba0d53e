package store

import (
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/search"
	"maternity-service/internal/pkg/utils"
	"time"
)

// Outcome labels used for store metrics.
const (
	OutcomeOK = "ok"
)

func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(exceptions.KindOf(err))
}

// CheckType rejects partitions the service does not know.
func CheckType(resourceType string) error {
	if !search.IsSupportedType(resourceType) {
		return exceptions.ErrInvalidResourceType(nil, resourceType)
	}
	return nil
}

// PrepareCreate stamps a new resource. The payload is copied so the caller
// keeps ownership of its value.
func PrepareCreate(resourceType string, payload *models.Resource, now time.Time) *models.Resource {
	resource := payload.Clone()
	if resource == nil {
		resource = models.NewResource(resourceType, nil)
	}
	resource.ResourceType = resourceType
	if resource.ID == "" {
		resource.ID = utils.GenerateResourceID(resourceType)
	}
	resource.Meta = models.Meta{
		VersionID:   1,
		LastUpdated: now.UTC(),
		Profile:     resource.Meta.Profile,
	}
	return resource
}

// PrepareUpdate builds the full replacement of current. Identity is forced
// to the key and lastUpdated never moves backwards.
func PrepareUpdate(current, payload *models.Resource, now time.Time) *models.Resource {
	resource := payload.Clone()
	if resource == nil {
		resource = models.NewResource(current.ResourceType, nil)
	}
	resource.ResourceType = current.ResourceType
	resource.ID = current.ID

	lastUpdated := now.UTC()
	if lastUpdated.Before(current.Meta.LastUpdated) {
		lastUpdated = current.Meta.LastUpdated
	}
	resource.Meta = models.Meta{
		VersionID:   current.Meta.VersionID + 1,
		LastUpdated: lastUpdated,
		Profile:     resource.Meta.Profile,
	}
	return resource
}
