package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

// AlertingOutcome summarises the effects applied for one observation.
type AlertingOutcome struct {
	FlagsCreated       []*models.Resource
	DuplicatesSkipped  []string
	Notifications      []models.NotificationIntent
	DependencyFailures []error
}

type AlertingPipeline interface {
	Run(ctx context.Context, observation *models.Resource, isNew bool) AlertingOutcome
}

// FlagSweeper inactivates flags whose period has ended.
type FlagSweeper interface {
	SweepExpiredFlags(ctx context.Context) (int, error)
}
