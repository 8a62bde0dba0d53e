package models

import "time"

// AuthorizationDecision is one audited outcome of the authorization engine.
type AuthorizationDecision struct {
	RequestID    string    `json:"requestId"`
	PrincipalID  string    `json:"principalId"`
	Role         string    `json:"role"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId,omitempty"`
	Action       string    `json:"action"`
	Allowed      bool      `json:"allowed"`
	Reason       string    `json:"reason,omitempty"`
	DecidedAt    time.Time `json:"decidedAt"`
}
