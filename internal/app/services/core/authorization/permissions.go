package authorization

import (
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/search"
)

type grant struct {
	resourceType string
	actions      []string
	scope        string
}

var (
	readOnly    = []string{constvars.ActionRead}
	readCreate  = []string{constvars.ActionRead, constvars.ActionCreate}
	readWrite   = []string{constvars.ActionRead, constvars.ActionCreate, constvars.ActionUpdate}
	readUpdate  = []string{constvars.ActionRead, constvars.ActionUpdate}
	fullControl = []string{constvars.ActionRead, constvars.ActionCreate, constvars.ActionUpdate, constvars.ActionDelete}
)

var roleGrants = map[string][]grant{
	constvars.RolePatient: {
		{constvars.ResourcePatient, readUpdate, constvars.PermissionScopeOwn},
		{constvars.ResourceObservation, readCreate, constvars.PermissionScopeOwn},
		{constvars.ResourceAppointment, readWrite, constvars.PermissionScopeOwn},
		{constvars.ResourceFlag, readOnly, constvars.PermissionScopeOwn},
		{constvars.ResourceCommunication, readUpdate, constvars.PermissionScopeOwn},
		{constvars.ResourceQuestionnaireResponse, readWrite, constvars.PermissionScopeOwn},
		{constvars.ResourceCarePlan, readOnly, constvars.PermissionScopeOwn},
		{constvars.ResourceCareTeam, readOnly, constvars.PermissionScopeOwn},
		{constvars.ResourceEncounter, readOnly, constvars.PermissionScopeOwn},
		{constvars.ResourceQuestionnaire, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourceOrganization, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourcePractitioner, readOnly, constvars.PermissionScopeAll},
	},
	constvars.RoleNurse: {
		{constvars.ResourcePatient, readUpdate, constvars.PermissionScopeAll},
		{constvars.ResourceObservation, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceAppointment, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceFlag, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceCommunication, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceQuestionnaireResponse, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourceCarePlan, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourceCareTeam, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourceEncounter, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceQuestionnaire, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourceOrganization, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourcePractitioner, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourcePractitioner, []string{constvars.ActionUpdate}, constvars.PermissionScopeOwn},
	},
	constvars.RoleDoctor: {
		{constvars.ResourcePatient, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceObservation, fullControl, constvars.PermissionScopeAll},
		{constvars.ResourceAppointment, fullControl, constvars.PermissionScopeAll},
		{constvars.ResourceFlag, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceCommunication, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceQuestionnaireResponse, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceCarePlan, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceCareTeam, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceEncounter, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceQuestionnaire, readWrite, constvars.PermissionScopeAll},
		{constvars.ResourceOrganization, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourcePractitioner, readOnly, constvars.PermissionScopeAll},
		{constvars.ResourcePractitioner, []string{constvars.ActionUpdate}, constvars.PermissionScopeOwn},
	},
}

// rolePermissions is built once at start up and never written afterwards.
var rolePermissions = buildRolePermissions()

func buildRolePermissions() map[string]models.PermissionSet {
	built := make(map[string]models.PermissionSet, len(roleGrants)+1)
	for role, grants := range roleGrants {
		var tokens []string
		for _, g := range grants {
			for _, action := range g.actions {
				tokens = append(tokens, models.PermissionToken(g.resourceType, action, g.scope))
			}
		}
		built[role] = models.NewPermissionSet(tokens...)
	}

	var adminTokens []string
	for _, resourceType := range search.SupportedTypes() {
		for _, action := range fullControl {
			adminTokens = append(adminTokens, models.PermissionToken(resourceType, action, constvars.PermissionScopeAll))
		}
	}
	built[constvars.RoleAdmin] = models.NewPermissionSet(adminTokens...)
	return built
}

// PermissionsFor returns a copy of the permission set of role.
func PermissionsFor(role string) (models.PermissionSet, bool) {
	permissions, ok := rolePermissions[role]
	if !ok {
		return nil, false
	}
	copied := make(models.PermissionSet, len(permissions))
	for token := range permissions {
		copied[token] = struct{}{}
	}
	return copied, true
}

// NewPrincipal resolves the identity handed over by the identity provider
// into a principal carrying the permissions of its role.
func NewPrincipal(identityID, role, facilityID string) (*models.Principal, error) {
	permissions, ok := PermissionsFor(role)
	if !ok {
		return nil, exceptions.ErrTokenUnknownRole(nil, role)
	}
	return &models.Principal{
		IdentityID:  identityID,
		Role:        role,
		FacilityID:  facilityID,
		Permissions: permissions,
	}, nil
}
