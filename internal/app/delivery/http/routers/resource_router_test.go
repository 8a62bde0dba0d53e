package routers

import (
	"bytes"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/delivery/http/controllers"
	"maternity-service/internal/app/delivery/http/middlewares"
	"maternity-service/internal/app/services/core/alerting"
	"maternity-service/internal/app/services/core/authorization"
	"maternity-service/internal/app/services/core/resources"
	"maternity-service/internal/app/services/shared/audit"
	"maternity-service/internal/app/services/shared/locker"
	"maternity-service/internal/app/services/shared/notifier"
	"maternity-service/internal/app/services/store/memory"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/metrics"
	"maternity-service/internal/pkg/utils"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-jwt-secret"

func newTestRouter(t *testing.T) *chi.Mux {
	logger := zap.NewNop()
	m := metrics.New()
	internalConfig := &config.InternalConfig{
		App: config.App{
			EndpointPrefix:             "/api",
			Version:                    "v1",
			RequestBodyLimitInMegabyte: 1,
		},
		JWT: config.AppJWT{Secret: testJWTSecret},
	}

	store := memory.NewResourceMemoryStore(logger, m)
	authorizer := authorization.NewAuthorizationService(audit.NewAuditRecorder(logger, m), logger)
	pipeline := alerting.NewAlertingPipeline(store, locker.NewLocalLockService(), notifier.NewLogPublisher(logger), logger, m, time.Second)
	resourceController := &controllers.ResourceController{
		Log:             logger,
		ResourceUsecase: resources.NewResourceUsecase(store, authorizer, pipeline, logger),
	}

	router := chi.NewRouter()
	SetupRoutes(router, internalConfig, middlewares.NewMiddlewares(logger, internalConfig), m, resourceController)
	return router
}

func bearer(t *testing.T, subject, role string) string {
	token, err := utils.GenerateAccessToken(subject, role, "", "", testJWTSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, router http.Handler, method, target, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)
	if auth != "" {
		req.Header.Set(constvars.HeaderAuthorization, auth)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

const observationBody = `{
	"resourceType": "Observation",
	"status": "final",
	"subject": {"reference": "Patient/P1"},
	"code": {"coding": [{"system": "http://loinc.org", "code": "8480-6"}]},
	"valueQuantity": {"value": %s, "unit": "mmHg"}
}`

func observationWithValue(value string) string {
	return strings.Replace(observationBody, "%s", value, 1)
}

func TestResourceRouter_CreateAndRead(t *testing.T) {
	router := newTestRouter(t)
	p1 := bearer(t, "P1", constvars.RolePatient)

	created := do(t, router, http.MethodPost, "/api/v1/fhir/Observation", p1, observationWithValue("118"))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Equal(t, `W/"1"`, created.Header().Get(constvars.HeaderETag))
	assert.NotEmpty(t, created.Header().Get(constvars.HeaderXRequestID))

	body := decode(t, created)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Observation/"+id+"/_history/1", created.Header().Get(constvars.HeaderLocation))
	meta, _ := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["versionId"])

	t.Run("owner", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/v1/fhir/Observation/"+id, p1, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, constvars.MIMEApplicationFHIRJSON, rr.Header().Get(constvars.HeaderContentType))
	})

	t.Run("another patient", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/v1/fhir/Observation/"+id, bearer(t, "P2", constvars.RolePatient), "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "ownership", decode(t, rr)["reason"])
	})

	t.Run("missing token", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/v1/fhir/Observation/"+id, "", "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := utils.GenerateAccessToken("P1", constvars.RolePatient, "", "", "other-secret", time.Hour)
		require.NoError(t, err)
		rr := do(t, router, http.MethodGet, "/api/v1/fhir/Observation/"+id, "Bearer "+token, "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/v1/fhir/Observation/"+id, bearer(t, "X1", "janitor"), "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestResourceRouter_ErrorMapping(t *testing.T) {
	router := newTestRouter(t)
	doctor := bearer(t, "D1", constvars.RoleDoctor)

	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		expectedCode int
		expectedKind string
	}{
		{"unknown type", http.MethodGet, "/api/v1/fhir/Spaceship", "", http.StatusBadRequest, "InvalidResourceType"},
		{"missing resource", http.MethodGet, "/api/v1/fhir/Observation/missing", "", http.StatusNotFound, "NotFound"},
		{"malformed body", http.MethodPost, "/api/v1/fhir/Observation", "{not json", http.StatusUnprocessableEntity, "ValidationFailed"},
		{"invalid payload", http.MethodPost, "/api/v1/fhir/Observation", `{"resourceType":"Observation","status":"final"}`, http.StatusUnprocessableEntity, "ValidationFailed"},
		{"update missing", http.MethodPut, "/api/v1/fhir/Observation/missing", observationWithValue("120"), http.StatusNotFound, "NotFound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, tt.method, tt.target, doctor, tt.body)
			assert.Equal(t, tt.expectedCode, rr.Code, rr.Body.String())
			assert.Equal(t, tt.expectedKind, decode(t, rr)["kind"])
		})
	}
}

func TestResourceRouter_SearchUpdateDelete(t *testing.T) {
	router := newTestRouter(t)
	doctor := bearer(t, "D1", constvars.RoleDoctor)

	var ids []string
	for _, value := range []string{"110", "115"} {
		rr := do(t, router, http.MethodPost, "/api/v1/fhir/Observation", doctor, observationWithValue(value))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		ids = append(ids, decode(t, rr)["id"].(string))
	}

	search := do(t, router, http.MethodGet, "/api/v1/fhir/Observation?subject=Patient/P1", doctor, "")
	require.Equal(t, http.StatusOK, search.Code)
	bundle := decode(t, search)
	assert.Equal(t, "Bundle", bundle["resourceType"])
	assert.Equal(t, "searchset", bundle["type"])
	assert.Equal(t, float64(2), bundle["total"])

	updated := do(t, router, http.MethodPut, "/api/v1/fhir/Observation/"+ids[0], doctor, observationWithValue("112"))
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	assert.Equal(t, `W/"2"`, updated.Header().Get(constvars.HeaderETag))

	deleted := do(t, router, http.MethodDelete, "/api/v1/fhir/Observation/"+ids[1], doctor, "")
	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Empty(t, deleted.Body.String())

	after := decode(t, do(t, router, http.MethodGet, "/api/v1/fhir/Observation", doctor, ""))
	assert.Equal(t, float64(1), after["total"])

	patientListing := do(t, router, http.MethodGet, "/api/v1/fhir/Observation", bearer(t, "P1", constvars.RolePatient), "")
	assert.Equal(t, http.StatusForbidden, patientListing.Code)
}

func TestResourceRouter_NotificationsAndReferences(t *testing.T) {
	router := newTestRouter(t)
	p1 := bearer(t, "P1", constvars.RolePatient)

	created := do(t, router, http.MethodPost, "/api/v1/fhir/Observation", p1, observationWithValue("168"))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	listing := decode(t, do(t, router, http.MethodGet, "/api/v1/fhir/Communication?recipient=Patient/P1", p1, ""))
	entries, _ := listing["entry"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	communication := entry["resource"].(map[string]interface{})
	id := communication["id"].(string)

	marked := do(t, router, http.MethodPost, "/api/v1/notifications/"+id+"/read", p1, "")
	require.Equal(t, http.StatusOK, marked.Code, marked.Body.String())
	assert.Equal(t, true, decode(t, marked)["isRead"])

	flags := decode(t, do(t, router, http.MethodGet, "/api/v1/fhir/Flag?subject=Patient/P1&status=active", p1, ""))
	assert.Equal(t, float64(1), flags["total"])

	dangling := do(t, router, http.MethodGet, "/api/v1/references/Practitioner/gone", p1, "")
	require.Equal(t, http.StatusOK, dangling.Code, dangling.Body.String())
	data, _ := decode(t, dangling)["data"].(map[string]interface{})
	assert.Equal(t, false, data["resolved"])
	assert.Equal(t, "unknown", data["display"])
}

func TestResourceRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodGet, "/api/v1/fhir/Observation/missing", bearer(t, "D1", constvars.RoleDoctor), "")

	rr := do(t, router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "maternity_http_requests_total")
	assert.Contains(t, rr.Body.String(), "maternity_authorization_decisions_total")
}

func TestResourceRouter_RequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(constvars.HeaderXRequestID, "client-request-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "client-request-1", rr.Header().Get(constvars.HeaderXRequestID))
}
