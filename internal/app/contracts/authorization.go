package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

// AccessRequest describes one operation to be authorized. Target is the
// stored resource when one is known; Payload is the incoming document on
// create and update.
type AccessRequest struct {
	ResourceType string
	Action       string
	ID           string
	Params       map[string]string
	Target       *models.Resource
	Payload      *models.Resource
}

type Authorizer interface {
	Authorize(ctx context.Context, principal *models.Principal, request AccessRequest) error
	// NeedsTarget reports whether Authorize needs request.Target loaded
	NeedsTarget(principal *models.Principal, request AccessRequest) bool
	// FilterOwned drops search results the principal does not own
	FilterOwned(principal *models.Principal, resources []*models.Resource) []*models.Resource
}

type AuditRecorder interface {
	Record(ctx context.Context, decision models.AuthorizationDecision)
}
