package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

type ResourceUsecase interface {
	Create(ctx context.Context, principal *models.Principal, resourceType string, payload *models.Resource) (*models.Resource, error)
	Read(ctx context.Context, principal *models.Principal, resourceType, id string) (*models.Resource, error)
	Update(ctx context.Context, principal *models.Principal, resourceType, id string, payload *models.Resource) (*models.Resource, error)
	Delete(ctx context.Context, principal *models.Principal, resourceType, id string) error
	Search(ctx context.Context, principal *models.Principal, resourceType string, params map[string]string) ([]*models.Resource, error)
	MarkNotificationRead(ctx context.Context, principal *models.Principal, id string) (*models.Resource, error)
	ResolveReference(ctx context.Context, principal *models.Principal, reference string) (models.ResolvedReference, error)
}
