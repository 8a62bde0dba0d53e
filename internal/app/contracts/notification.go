package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

// NotificationPublisher hands intents to the external delivery collaborator.
type NotificationPublisher interface {
	Publish(ctx context.Context, intent models.NotificationIntent) error
}
