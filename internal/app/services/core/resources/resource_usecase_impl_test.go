package resources

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/core/alerting"
	"maternity-service/internal/app/services/core/authorization"
	"maternity-service/internal/app/services/shared/audit"
	"maternity-service/internal/app/services/shared/locker"
	"maternity-service/internal/app/services/store/memory"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/metrics"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockNotificationPublisher struct {
	mock.Mock
}

func (m *mockNotificationPublisher) Publish(ctx context.Context, intent models.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

type usecaseFixture struct {
	store     contracts.ResourceStore
	publisher *mockNotificationPublisher
	usecase   contracts.ResourceUsecase
}

func newUsecaseFixture(t *testing.T) usecaseFixture {
	m := metrics.New()
	store := memory.NewResourceMemoryStore(zap.NewNop(), m)
	publisher := &mockNotificationPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	authorizer := authorization.NewAuthorizationService(audit.NewAuditRecorder(zap.NewNop(), m), zap.NewNop())
	pipeline := alerting.NewAlertingPipeline(store, locker.NewLocalLockService(), publisher, zap.NewNop(), m, time.Second)

	return usecaseFixture{
		store:     store,
		publisher: publisher,
		usecase:   NewResourceUsecase(store, authorizer, pipeline, zap.NewNop()),
	}
}

func principal(t *testing.T, identityID, role, facilityID string) *models.Principal {
	p, err := authorization.NewPrincipal(identityID, role, facilityID)
	require.NoError(t, err)
	return p
}

func loinc(code string) map[string]interface{} {
	return map[string]interface{}{
		"coding": []interface{}{map[string]interface{}{"system": constvars.LoincSystem, "code": code}},
	}
}

func systolicObservation(subject string, value float64) *models.Resource {
	return models.NewResource(constvars.ResourceObservation, map[string]interface{}{
		"status":        constvars.FhirObservationStatusFinal,
		"subject":       map[string]interface{}{"reference": subject},
		"code":          loinc(constvars.LoincSystolicBP),
		"valueQuantity": map[string]interface{}{"value": value, "unit": "mmHg"},
	})
}

func assertForbidden(t *testing.T, err error, reason exceptions.ForbiddenReason) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, exceptions.IsKind(err, exceptions.KindForbidden), "got %v", err)
	assert.Equal(t, reason, exceptions.ReasonOf(err))
}

func TestResourceUsecase_PatientOwnership(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	doctor := principal(t, "D1", constvars.RoleDoctor, "")
	p1 := principal(t, "P1", constvars.RolePatient, "")
	p2 := principal(t, "P2", constvars.RolePatient, "")

	observation, err := f.usecase.Create(ctx, doctor, constvars.ResourceObservation, systolicObservation("Patient/P1", 118))
	require.NoError(t, err)

	t.Run("owner reads", func(t *testing.T) {
		read, err := f.usecase.Read(ctx, p1, constvars.ResourceObservation, observation.ID)
		require.NoError(t, err)
		assert.Equal(t, observation.ID, read.ID)
	})

	t.Run("other patient is denied", func(t *testing.T) {
		_, err := f.usecase.Read(ctx, p2, constvars.ResourceObservation, observation.ID)
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := f.usecase.Read(ctx, p1, constvars.ResourceObservation, "missing")
		assert.True(t, exceptions.IsKind(err, exceptions.KindNotFound))
	})

	t.Run("own patient record", func(t *testing.T) {
		_, err := f.usecase.Read(ctx, p2, constvars.ResourcePatient, "P1")
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})

	t.Run("create for someone else", func(t *testing.T) {
		_, err := f.usecase.Create(ctx, p2, constvars.ResourceObservation, systolicObservation("Patient/P1", 120))
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})

	t.Run("delete without permission", func(t *testing.T) {
		err := f.usecase.Delete(ctx, p1, constvars.ResourceObservation, observation.ID)
		assertForbidden(t, err, exceptions.ReasonPermission)

		_, err = f.store.Read(ctx, constvars.ResourceObservation, observation.ID)
		assert.NoError(t, err)
	})
}

func TestResourceUsecase_CreateForOtherSubjectViaSideReferences(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	p1 := principal(t, "P1", constvars.RolePatient, "")

	viaRecipient := systolicObservation("Patient/P2", 170)
	viaRecipient.Data["recipient"] = []interface{}{map[string]interface{}{"reference": "Patient/P1"}}

	viaParticipant := systolicObservation("Patient/P2", 170)
	viaParticipant.Data["participant"] = []interface{}{
		map[string]interface{}{"actor": map[string]interface{}{"reference": "Patient/P1"}},
	}

	for _, payload := range []*models.Resource{viaRecipient, viaParticipant} {
		created, err := f.usecase.Create(ctx, p1, constvars.ResourceObservation, payload)
		assertForbidden(t, err, exceptions.ReasonOwnership)
		assert.Nil(t, created)
	}

	flags, err := f.store.Search(ctx, constvars.ResourceFlag, map[string]string{"subject": "Patient/P2"})
	require.NoError(t, err)
	assert.Empty(t, flags)

	observations, err := f.store.Search(ctx, constvars.ResourceObservation, map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, observations)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestResourceUsecase_Search(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	doctor := principal(t, "D1", constvars.RoleDoctor, "")
	p1 := principal(t, "P1", constvars.RolePatient, "")

	for _, subject := range []string{"Patient/P1", "Patient/P2", "Patient/P1"} {
		_, err := f.usecase.Create(ctx, doctor, constvars.ResourceObservation, systolicObservation(subject, 115))
		require.NoError(t, err)
	}

	t.Run("patient listing everything is denied", func(t *testing.T) {
		_, err := f.usecase.Search(ctx, p1, constvars.ResourceObservation, map[string]string{})
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})

	t.Run("patient scoped to self", func(t *testing.T) {
		results, err := f.usecase.Search(ctx, p1, constvars.ResourceObservation, map[string]string{"subject": "Patient/P1"})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("patient scoped to another patient", func(t *testing.T) {
		_, err := f.usecase.Search(ctx, p1, constvars.ResourceObservation, map[string]string{"subject": "Patient/P2"})
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})

	t.Run("doctor sees every partition member", func(t *testing.T) {
		results, err := f.usecase.Search(ctx, doctor, constvars.ResourceObservation, map[string]string{})
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("nurse from another facility", func(t *testing.T) {
		nurse := principal(t, "N1", constvars.RoleNurse, "F1")
		_, err := f.usecase.Search(ctx, nurse, constvars.ResourceObservation, map[string]string{"facilityId": "F2"})
		assertForbidden(t, err, exceptions.ReasonFacility)
	})

	t.Run("unknown partition", func(t *testing.T) {
		_, err := f.usecase.Search(ctx, doctor, "Spaceship", map[string]string{})
		assert.True(t, exceptions.IsKind(err, exceptions.KindInvalidResourceType))
	})
}

func TestResourceUsecase_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	doctor := principal(t, "D1", constvars.RoleDoctor, "")

	t.Run("observation without code", func(t *testing.T) {
		payload := models.NewResource(constvars.ResourceObservation, map[string]interface{}{
			"subject": map[string]interface{}{"reference": "Patient/P1"},
		})
		_, err := f.usecase.Create(ctx, doctor, constvars.ResourceObservation, payload)
		require.Error(t, err)
		assert.True(t, exceptions.IsKind(err, exceptions.KindValidationFailed))
	})

	t.Run("appointment with unknown status", func(t *testing.T) {
		payload := models.NewResource(constvars.ResourceAppointment, map[string]interface{}{"status": "maybe"})
		_, err := f.usecase.Create(ctx, doctor, constvars.ResourceAppointment, payload)
		assert.True(t, exceptions.IsKind(err, exceptions.KindValidationFailed))
	})

	t.Run("payload type differs from partition", func(t *testing.T) {
		payload := models.NewResource(constvars.ResourcePatient, nil)
		_, err := f.usecase.Create(ctx, doctor, constvars.ResourceObservation, payload)
		assert.True(t, exceptions.IsKind(err, exceptions.KindValidationFailed))
	})

	t.Run("unknown partition", func(t *testing.T) {
		_, err := f.usecase.Create(ctx, doctor, "Spaceship", models.NewResource("Spaceship", nil))
		assert.True(t, exceptions.IsKind(err, exceptions.KindInvalidResourceType))
	})

	t.Run("identity provider ids are valid subjects", func(t *testing.T) {
		patient := principal(t, "user_2abc", constvars.RolePatient, "")
		created, err := f.usecase.Create(ctx, patient, constvars.ResourceObservation, systolicObservation("Patient/user_2abc", 118))
		require.NoError(t, err)
		assert.Equal(t, "Patient/user_2abc", created.SubjectReference().String())
	})

	t.Run("unvalidated types are stored as given", func(t *testing.T) {
		created, err := f.usecase.Create(ctx, doctor, constvars.ResourceQuestionnaire, models.NewResource(constvars.ResourceQuestionnaire, map[string]interface{}{
			"title": "Antenatal intake",
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, created.Meta.VersionID)
	})
}

func TestResourceUsecase_HypertensionRaisesOneFlag(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	p1 := principal(t, "P1", constvars.RolePatient, "")
	doctor := principal(t, "D1", constvars.RoleDoctor, "")

	for i := 0; i < 2; i++ {
		_, err := f.usecase.Create(ctx, p1, constvars.ResourceObservation, systolicObservation("Patient/P1", 150))
		require.NoError(t, err)
	}

	flags, err := f.usecase.Search(ctx, doctor, constvars.ResourceFlag, map[string]string{
		"subject": "Patient/P1",
		"status":  constvars.FhirFlagStatusActive,
	})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	_, code := flags[0].CodingCode("code")
	assert.Equal(t, constvars.ConditionHypertension, code)

	own, err := f.usecase.Search(ctx, p1, constvars.ResourceFlag, map[string]string{"subject": "Patient/P1"})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestResourceUsecase_UpdateDoesNotSendRoutineNotices(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	nurse := principal(t, "N1", constvars.RoleNurse, "")

	created, err := f.usecase.Create(ctx, nurse, constvars.ResourceObservation, systolicObservation("Patient/P1", 120))
	require.NoError(t, err)
	f.publisher.AssertNumberOfCalls(t, "Publish", 0)

	updated, err := f.usecase.Update(ctx, nurse, constvars.ResourceObservation, created.ID, systolicObservation("Patient/P1", 135))
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Meta.VersionID)
	f.publisher.AssertNumberOfCalls(t, "Publish", 0)
}

func TestResourceUsecase_Notifications(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	p1 := principal(t, "P1", constvars.RolePatient, "")
	p2 := principal(t, "P2", constvars.RolePatient, "")
	nurse := principal(t, "N1", constvars.RoleNurse, "")

	_, err := f.usecase.Create(ctx, p1, constvars.ResourceObservation, systolicObservation("Patient/P1", 165))
	require.NoError(t, err)

	notifications, err := f.usecase.Search(ctx, p1, constvars.ResourceCommunication, map[string]string{"recipient": "Patient/P1"})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	id := notifications[0].ID

	t.Run("another patient cannot mark it", func(t *testing.T) {
		_, err := f.usecase.MarkNotificationRead(ctx, p2, id)
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})

	t.Run("recipient marks it read once", func(t *testing.T) {
		marked, err := f.usecase.MarkNotificationRead(ctx, p1, id)
		require.NoError(t, err)
		assert.True(t, models.IsNotificationRead(marked))
		assert.NotEmpty(t, marked.GetString("readAt"))
		assert.Equal(t, 2, marked.Meta.VersionID)

		again, err := f.usecase.MarkNotificationRead(ctx, p1, id)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Meta.VersionID)
	})

	t.Run("message cannot be rewritten", func(t *testing.T) {
		current, err := f.usecase.Read(ctx, nurse, constvars.ResourceCommunication, id)
		require.NoError(t, err)

		rewritten := current.Clone()
		rewritten.Set("payload", []interface{}{map[string]interface{}{"contentString": "all clear"}})
		_, err = f.usecase.Update(ctx, nurse, constvars.ResourceCommunication, id, rewritten)
		require.Error(t, err)
		assert.True(t, exceptions.IsKind(err, exceptions.KindValidationFailed))
	})

	t.Run("read state can be reset through update", func(t *testing.T) {
		current, err := f.usecase.Read(ctx, nurse, constvars.ResourceCommunication, id)
		require.NoError(t, err)

		unread := current.Clone()
		unread.Set("isRead", false)
		updated, err := f.usecase.Update(ctx, nurse, constvars.ResourceCommunication, id, unread)
		require.NoError(t, err)
		assert.False(t, models.IsNotificationRead(updated))
	})
}

func TestResourceUsecase_ResolveReference(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	doctor := principal(t, "D1", constvars.RoleDoctor, "")

	patient := models.NewResource(constvars.ResourcePatient, map[string]interface{}{
		"name": []interface{}{map[string]interface{}{"given": []interface{}{"Ada"}, "family": "Obi"}},
	})
	patient.ID = "P1"
	_, err := f.usecase.Create(ctx, doctor, constvars.ResourcePatient, patient)
	require.NoError(t, err)

	t.Run("existing referent", func(t *testing.T) {
		resolved, err := f.usecase.ResolveReference(ctx, doctor, "Patient/P1")
		require.NoError(t, err)
		assert.True(t, resolved.Resolved)
		assert.Equal(t, "Ada Obi", resolved.Display)
	})

	t.Run("dangling referent", func(t *testing.T) {
		resolved, err := f.usecase.ResolveReference(ctx, doctor, "Practitioner/gone")
		require.NoError(t, err)
		assert.False(t, resolved.Resolved)
		assert.Equal(t, models.UnresolvedDisplay, resolved.Display)
		assert.Nil(t, resolved.Resource)
	})

	t.Run("unknown type", func(t *testing.T) {
		resolved, err := f.usecase.ResolveReference(ctx, doctor, "Spaceship/1")
		require.NoError(t, err)
		assert.False(t, resolved.Resolved)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := f.usecase.ResolveReference(ctx, doctor, "nope")
		assert.True(t, exceptions.IsKind(err, exceptions.KindValidationFailed))
	})

	t.Run("denied referent stays denied", func(t *testing.T) {
		p2 := principal(t, "P2", constvars.RolePatient, "")
		_, err := f.usecase.ResolveReference(ctx, p2, "Patient/P1")
		assertForbidden(t, err, exceptions.ReasonOwnership)
	})
}

func TestResourceUsecase_DeleteIsHard(t *testing.T) {
	ctx := context.Background()
	f := newUsecaseFixture(t)
	doctor := principal(t, "D1", constvars.RoleDoctor, "")

	created, err := f.usecase.Create(ctx, doctor, constvars.ResourceObservation, systolicObservation("Patient/P1", 110))
	require.NoError(t, err)

	require.NoError(t, f.usecase.Delete(ctx, doctor, constvars.ResourceObservation, created.ID))

	_, err = f.usecase.Read(ctx, doctor, constvars.ResourceObservation, created.ID)
	assert.True(t, exceptions.IsKind(err, exceptions.KindNotFound))

	err = f.usecase.Delete(ctx, doctor, constvars.ResourceObservation, created.ID)
	assert.True(t, exceptions.IsKind(err, exceptions.KindNotFound))
}
