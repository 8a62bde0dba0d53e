package notifier

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type logPublisher struct {
	log *zap.Logger
}

// NewLogPublisher writes intents to the log instead of a broker.
func NewLogPublisher(log *zap.Logger) contracts.NotificationPublisher {
	return &logPublisher{log: log}
}

func (p *logPublisher) Publish(ctx context.Context, intent models.NotificationIntent) error {
	recipients := make([]string, 0, len(intent.Recipients))
	for _, recipient := range intent.Recipients {
		recipients = append(recipients, recipient.String())
	}

	p.log.Info("logPublisher.Publish notification",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
		zap.Strings(constvars.LoggingRecipientsKey, recipients),
		zap.String(constvars.LoggingUrgencyKey, intent.Urgency),
		zap.String(constvars.LoggingConditionCodeKey, intent.ConditionCode),
	)
	return nil
}
