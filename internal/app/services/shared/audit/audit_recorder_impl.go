package audit

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/metrics"
	"maternity-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const (
	eventAuthorizationDenied = "authorization_denied"
	severityMedium           = "medium"
)

type auditRecorder struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// NewAuditRecorder writes every authorization decision to the audit log
// and to the decision counter.
func NewAuditRecorder(logger *zap.Logger, m *metrics.Metrics) contracts.AuditRecorder {
	return &auditRecorder{
		Log:     logger,
		Metrics: m,
	}
}

func (r *auditRecorder) Record(ctx context.Context, decision models.AuthorizationDecision) {
	r.Metrics.ObserveAuthorization(decision.Role, decision.ResourceType, decision.Action, decision.Allowed, decision.Reason)

	fields := []zap.Field{
		zap.String(constvars.LoggingPrincipalIDKey, decision.PrincipalID),
		zap.String(constvars.LoggingRoleKey, decision.Role),
		zap.String(constvars.LoggingResourceTypeKey, decision.ResourceType),
		zap.String(constvars.LoggingResourceIDKey, decision.ResourceID),
		zap.String(constvars.LoggingActionKey, decision.Action),
		zap.Time("decided_at", decision.DecidedAt),
	}

	if !decision.Allowed {
		fields = append(fields, zap.String(constvars.LoggingReasonKey, decision.Reason))
		utils.LogSecurityEvent(r.Log, eventAuthorizationDenied, decision.RequestID, severityMedium, fields...)
		return
	}

	fields = append([]zap.Field{
		zap.String(constvars.LoggingRequestIDKey, decision.RequestID),
		zap.Bool(constvars.LoggingDecisionKey, true),
	}, fields...)
	r.Log.Info("Authorization granted", fields...)
}
