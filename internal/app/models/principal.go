package models

import (
	"maternity-service/internal/pkg/constvars"
	"strings"
)

// PermissionSet holds tokens of the form "<type>:<action>:<scope>".
type PermissionSet map[string]struct{}

func NewPermissionSet(tokens ...string) PermissionSet {
	set := make(PermissionSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

func PermissionToken(resourceType, action, scope string) string {
	return strings.ToLower(resourceType) + ":" + action + ":" + scope
}

// Principal is the authenticated caller as resolved upstream.
type Principal struct {
	IdentityID  string
	Role        string
	FacilityID  string
	Permissions PermissionSet
}

func (p *Principal) IsAdmin() bool {
	return p.Role == constvars.RoleAdmin
}

func (p *Principal) IsPatient() bool {
	return p.Role == constvars.RolePatient
}

// Reference returns the resource the principal's identity maps to.
func (p *Principal) Reference() Reference {
	if p.IsPatient() {
		return Reference{Type: constvars.ResourcePatient, ID: p.IdentityID}
	}
	return Reference{Type: constvars.ResourcePractitioner, ID: p.IdentityID}
}
