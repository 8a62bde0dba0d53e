package authorization

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/search"
	"maternity-service/internal/pkg/utils"
	"time"

	"go.uber.org/zap"
)

type authorizationService struct {
	Recorder contracts.AuditRecorder
	Log      *zap.Logger
	now      func() time.Time
}

// NewAuthorizationService returns the stateless authorization engine. It
// only reads the principal and the request; every decision is handed to
// recorder.
func NewAuthorizationService(recorder contracts.AuditRecorder, logger *zap.Logger) contracts.Authorizer {
	return &authorizationService{
		Recorder: recorder,
		Log:      logger,
		now:      time.Now,
	}
}

func (s *authorizationService) Authorize(ctx context.Context, principal *models.Principal, request contracts.AccessRequest) error {
	err := s.evaluate(principal, request)

	decision := models.AuthorizationDecision{
		RequestID:    utils.GetRequestID(ctx),
		ResourceType: request.ResourceType,
		ResourceID:   request.ID,
		Action:       request.Action,
		Allowed:      err == nil,
		Reason:       string(exceptions.ReasonOf(err)),
		DecidedAt:    s.now().UTC(),
	}
	if principal != nil {
		decision.PrincipalID = principal.IdentityID
		decision.Role = principal.Role
	}
	s.Recorder.Record(ctx, decision)

	if err != nil {
		s.Log.Debug("authorizationService.Authorize denied",
			zap.String(constvars.LoggingRequestIDKey, decision.RequestID),
			zap.String(constvars.LoggingResourceTypeKey, request.ResourceType),
			zap.String(constvars.LoggingActionKey, request.Action),
			zap.Error(err),
		)
	}
	return err
}

// NeedsTarget reports whether deciding request requires the stored
// resource. This is the case for a principal restricted to its own data
// addressing a single resource it cannot be matched against by id alone.
func (s *authorizationService) NeedsTarget(principal *models.Principal, request contracts.AccessRequest) bool {
	if principal == nil || request.ID == "" || request.Target != nil {
		return false
	}
	switch request.Action {
	case constvars.ActionRead, constvars.ActionUpdate, constvars.ActionDelete:
	default:
		return false
	}
	if request.ResourceType == principal.Reference().Type {
		return false
	}
	permissionAction := permissionActionFor(request.Action)
	hasAll := principal.Permissions.Has(models.PermissionToken(request.ResourceType, permissionAction, constvars.PermissionScopeAll))
	hasOwn := principal.Permissions.Has(models.PermissionToken(request.ResourceType, permissionAction, constvars.PermissionScopeOwn))
	return !hasAll && hasOwn
}

func (s *authorizationService) FilterOwned(principal *models.Principal, resources []*models.Resource) []*models.Resource {
	if principal == nil {
		return []*models.Resource{}
	}
	owner := principal.Reference()
	filtered := make([]*models.Resource, 0, len(resources))
	for _, resource := range resources {
		token := models.PermissionToken(resource.ResourceType, constvars.ActionRead, constvars.PermissionScopeAll)
		if principal.Permissions.Has(token) || isOwnedBy(resource, owner) {
			filtered = append(filtered, resource)
		}
	}
	return filtered
}

func permissionActionFor(action string) string {
	if action == constvars.ActionSearch {
		return constvars.ActionRead
	}
	return action
}

// evaluate runs permission, ownership and facility narrowing in order and
// stops at the first denial.
func (s *authorizationService) evaluate(principal *models.Principal, request contracts.AccessRequest) error {
	if principal == nil {
		return exceptions.ErrTokenMissing(nil)
	}

	permissionAction := permissionActionFor(request.Action)
	hasAll := principal.Permissions.Has(models.PermissionToken(request.ResourceType, permissionAction, constvars.PermissionScopeAll))
	hasOwn := principal.Permissions.Has(models.PermissionToken(request.ResourceType, permissionAction, constvars.PermissionScopeOwn))
	if !hasAll && !hasOwn {
		return exceptions.ErrForbiddenPermission(principal.Role, request.ResourceType, request.Action)
	}

	if !hasAll {
		if err := checkOwnership(principal, request); err != nil {
			return err
		}
	}

	return checkFacility(principal, request)
}

func checkOwnership(principal *models.Principal, request contracts.AccessRequest) error {
	owner := principal.Reference()
	denied := exceptions.ErrForbiddenOwnership(principal.IdentityID, request.ResourceType)

	switch request.Action {
	case constvars.ActionSearch:
		if !isScopedTo(request.ResourceType, request.Params, owner) {
			return denied
		}
		return nil
	case constvars.ActionCreate:
		if !isOwnedBy(request.Payload, owner) {
			return denied
		}
		return nil
	}

	if request.ResourceType == owner.Type {
		if request.ID != owner.ID {
			return denied
		}
		return nil
	}
	if !isOwnedBy(request.Target, owner) {
		return denied
	}
	if request.Action == constvars.ActionUpdate && request.Payload != nil && !isOwnedBy(request.Payload, owner) {
		return denied
	}
	return nil
}

// checkFacility only applies to requests that name a facility explicitly.
func checkFacility(principal *models.Principal, request contracts.AccessRequest) error {
	if principal.IsAdmin() || principal.FacilityID == "" {
		return nil
	}
	if raw, ok := request.Params[search.ParamFacilityID]; ok {
		for _, facility := range splitValues(raw) {
			if facility != principal.FacilityID {
				return exceptions.ErrForbiddenFacility(principal.FacilityID, facility)
			}
		}
	}
	if request.Payload != nil {
		if facility := request.Payload.GetString(search.ParamFacilityID); facility != "" && facility != principal.FacilityID {
			return exceptions.ErrForbiddenFacility(principal.FacilityID, facility)
		}
	}
	return nil
}
