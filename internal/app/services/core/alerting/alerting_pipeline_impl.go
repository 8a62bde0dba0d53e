package alerting

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/metrics"
	"maternity-service/internal/pkg/utils"
	"time"

	"go.uber.org/zap"
)

const (
	lockKeyPrefix  = "alerting:flag:"
	defaultLockTTL = 10 * time.Second
)

type alertingPipeline struct {
	Store     contracts.ResourceStore
	Locker    contracts.LockerService
	Publisher contracts.NotificationPublisher
	Log       *zap.Logger
	Metrics   *metrics.Metrics
	LockTTL   time.Duration
	now       func() time.Time
}

// NewAlertingPipeline applies the effects of Evaluate through the store.
// The lock only narrows the window for concurrent evaluations; the store
// constraint on active flags is what prevents duplicates.
func NewAlertingPipeline(
	store contracts.ResourceStore,
	locker contracts.LockerService,
	publisher contracts.NotificationPublisher,
	logger *zap.Logger,
	m *metrics.Metrics,
	lockTTL time.Duration,
) contracts.AlertingPipeline {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &alertingPipeline{
		Store:     store,
		Locker:    locker,
		Publisher: publisher,
		Log:       logger,
		Metrics:   m,
		LockTTL:   lockTTL,
		now:       time.Now,
	}
}

func (p *alertingPipeline) Run(ctx context.Context, observation *models.Resource, isNew bool) contracts.AlertingOutcome {
	var outcome contracts.AlertingOutcome
	requestID := utils.GetRequestID(ctx)

	evaluation := Evaluate(observation, isNew)
	if evaluation.IsEmpty() {
		return outcome
	}

	p.Log.Info("alertingPipeline.Run called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceIDKey, observation.ID),
		zap.Int("flag_intents", len(evaluation.Flags)),
		zap.Int("notable_intents", len(evaluation.Notifications)),
	)

	for _, intent := range evaluation.Flags {
		flag, duplicate, err := p.applyFlag(ctx, intent)
		if err != nil {
			p.Log.Error("alertingPipeline.Run failed to raise flag",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
				zap.String(constvars.LoggingConditionCodeKey, intent.ConditionCode),
				zap.Error(err),
			)
			outcome.DependencyFailures = append(outcome.DependencyFailures, err)
			continue
		}
		if duplicate {
			p.Metrics.FlagDuplicate(intent.ConditionCode)
			outcome.DuplicatesSkipped = append(outcome.DuplicatesSkipped, intent.ConditionCode)
			continue
		}

		p.Metrics.FlagCreated(intent.ConditionCode)
		outcome.FlagsCreated = append(outcome.FlagsCreated, flag)

		notification := models.NotificationIntent{
			Subject:       intent.Subject,
			Recipients:    p.resolveRecipients(ctx, intent.Subject),
			Message:       intent.Message,
			Urgency:       constvars.NotificationUrgencyHigh,
			ConditionCode: intent.ConditionCode,
			Source:        flag.Reference(),
		}
		p.notify(ctx, notification, &outcome)
	}

	for _, intent := range evaluation.Notifications {
		notification := models.NotificationIntent{
			Subject:       intent.Subject,
			Recipients:    p.resolveRecipients(ctx, intent.Subject),
			Message:       intent.Message,
			Urgency:       constvars.NotificationUrgencyRoutine,
			ConditionCode: intent.ConditionCode,
			Source:        intent.Source,
		}
		p.notify(ctx, notification, &outcome)
	}

	return outcome
}

// applyFlag creates the Flag of intent unless an active one exists. A
// Conflict from the store means a concurrent writer won the race.
func (p *alertingPipeline) applyFlag(ctx context.Context, intent FlagIntent) (*models.Resource, bool, error) {
	key := lockKeyPrefix + models.FlagKey(intent.Subject, intent.ConditionCode)

	acquired, lockValue, err := p.Locker.TryLock(ctx, key, p.LockTTL)
	if err != nil {
		p.Log.Warn("alertingPipeline.applyFlag continuing without lock",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingRedisKey, key),
			zap.Error(err),
		)
	}
	if acquired {
		defer func() {
			if err := p.Locker.Unlock(ctx, key, lockValue); err != nil {
				p.Log.Warn("alertingPipeline.applyFlag failed to release lock",
					zap.String(constvars.LoggingRedisKey, key),
					zap.Error(err),
				)
			}
		}()
	}

	existing, err := p.Store.Search(ctx, constvars.ResourceFlag, map[string]string{
		"subject": intent.Subject.String(),
		"code":    intent.ConditionCode,
		"status":  constvars.FhirFlagStatusActive,
		"_count":  "1",
	})
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return nil, true, nil
	}

	flag, err := p.Store.Create(ctx, constvars.ResourceFlag, p.buildFlag(intent))
	if err != nil {
		if exceptions.IsKind(err, exceptions.KindConflict) {
			return nil, true, nil
		}
		return nil, false, err
	}

	p.Log.Info("alertingPipeline.applyFlag raised flag",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceIDKey, flag.ID),
		zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
		zap.String(constvars.LoggingConditionCodeKey, intent.ConditionCode),
	)
	return flag, false, nil
}

func (p *alertingPipeline) buildFlag(intent FlagIntent) *models.Resource {
	data := map[string]interface{}{
		"status": constvars.FhirFlagStatusActive,
		"category": []interface{}{
			map[string]interface{}{
				"coding": []interface{}{
					map[string]interface{}{"system": constvars.FlagCategorySystem, "code": constvars.FlagCategoryClinical},
				},
			},
		},
		"code": map[string]interface{}{
			"coding": []interface{}{
				map[string]interface{}{
					"system":  constvars.RiskConditionSystem,
					"code":    intent.ConditionCode,
					"display": intent.Display,
				},
			},
			"text": intent.Message,
		},
		"subject": map[string]interface{}{"reference": intent.Subject.String()},
		"period": map[string]interface{}{
			"start": p.now().UTC().Format(time.RFC3339Nano),
		},
	}
	if !intent.Source.IsZero() {
		data["evidence"] = []interface{}{map[string]interface{}{"reference": intent.Source.String()}}
	}
	return models.NewResource(constvars.ResourceFlag, data)
}

// notify stores the Communication record and hands the intent to the
// publisher. Neither failure is propagated.
func (p *alertingPipeline) notify(ctx context.Context, intent models.NotificationIntent, outcome *contracts.AlertingOutcome) {
	requestID := utils.GetRequestID(ctx)
	intent.CreatedAt = p.now().UTC()

	communication, err := p.Store.Create(ctx, constvars.ResourceCommunication, intent.Communication())
	if err != nil {
		p.Log.Error("alertingPipeline.notify failed to record communication",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
			zap.Error(err),
		)
		outcome.DependencyFailures = append(outcome.DependencyFailures, err)
	} else {
		intent.CommunicationID = communication.ID
	}
	outcome.Notifications = append(outcome.Notifications, intent)

	err = p.Publisher.Publish(ctx, intent)
	p.Metrics.NotificationPublished(intent.Urgency, err)
	if err != nil {
		if !exceptions.IsKind(err, exceptions.KindDependencyUnavailable) {
			err = exceptions.ErrServerProcess(err)
		}
		p.Log.Error("alertingPipeline.notify failed to publish notification",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
			zap.String(constvars.LoggingUrgencyKey, intent.Urgency),
			zap.Error(err),
		)
		outcome.DependencyFailures = append(outcome.DependencyFailures, err)
		return
	}

	p.Log.Info("alertingPipeline.notify published notification",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
		zap.String(constvars.LoggingUrgencyKey, intent.Urgency),
		zap.Int(constvars.LoggingRecipientsKey, len(intent.Recipients)),
	)
}

// resolveRecipients returns the patient followed by its care team: the
// general practitioners of the Patient and the members of its CareTeams.
// Missing or unreadable referents are skipped.
func (p *alertingPipeline) resolveRecipients(ctx context.Context, subject models.Reference) []models.Reference {
	recipients := []models.Reference{subject}
	seen := map[models.Reference]bool{subject: true}
	add := func(ref models.Reference) {
		if ref.IsZero() || seen[ref] {
			return
		}
		seen[ref] = true
		recipients = append(recipients, ref)
	}

	if subject.Type == constvars.ResourcePatient {
		patient, err := p.Store.Read(ctx, constvars.ResourcePatient, subject.ID)
		switch {
		case err == nil:
			for _, ref := range referenceList(patient, "generalPractitioner") {
				add(ref)
			}
		case exceptions.IsKind(err, exceptions.KindNotFound):
			p.Log.Debug("alertingPipeline.resolveRecipients subject unresolved",
				zap.String(constvars.LoggingSubjectKey, subject.String()),
			)
		default:
			p.Log.Warn("alertingPipeline.resolveRecipients failed to read subject",
				zap.String(constvars.LoggingSubjectKey, subject.String()),
				zap.Error(err),
			)
		}
	}

	teams, err := p.Store.Search(ctx, constvars.ResourceCareTeam, map[string]string{"subject": subject.String()})
	if err != nil {
		p.Log.Warn("alertingPipeline.resolveRecipients failed to search care teams",
			zap.String(constvars.LoggingSubjectKey, subject.String()),
			zap.Error(err),
		)
		return recipients
	}
	for _, team := range teams {
		if status := team.GetString("status"); status != "" && status != "active" {
			continue
		}
		for _, ref := range memberReferences(team) {
			add(ref)
		}
	}
	return recipients
}

func referenceList(resource *models.Resource, field string) []models.Reference {
	raw, ok := resource.Lookup(field)
	if !ok {
		return nil
	}
	entries, _ := raw.([]interface{})
	references := make([]models.Reference, 0, len(entries))
	for _, entry := range entries {
		object, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		value, _ := object["reference"].(string)
		if ref, ok := models.ParseReference(value); ok {
			references = append(references, ref)
		}
	}
	return references
}

func memberReferences(team *models.Resource) []models.Reference {
	raw, ok := team.Lookup("participant")
	if !ok {
		return nil
	}
	entries, _ := raw.([]interface{})
	var references []models.Reference
	for _, entry := range entries {
		participant, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		member := models.NewResource("", participant)
		if ref, ok := models.ParseReference(member.GetString("member", "reference")); ok {
			references = append(references, ref)
		}
	}
	return references
}
