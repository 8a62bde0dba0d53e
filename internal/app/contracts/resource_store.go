package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

// ResourceStore is the type-partitioned, versioned document store.
// Implementations serialise writers per (resourceType, id) and reject a
// second active Flag for the same subject and condition with Conflict.
type ResourceStore interface {
	Create(ctx context.Context, resourceType string, payload *models.Resource) (*models.Resource, error)
	Read(ctx context.Context, resourceType, id string) (*models.Resource, error)
	Update(ctx context.Context, resourceType, id string, payload *models.Resource) (*models.Resource, error)
	Delete(ctx context.Context, resourceType, id string) error
	Search(ctx context.Context, resourceType string, params map[string]string) ([]*models.Resource, error)
}
