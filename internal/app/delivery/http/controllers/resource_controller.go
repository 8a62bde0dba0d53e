package controllers

import (
	"fmt"
	"io"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/delivery/http/middlewares"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/dto/responses"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	URLParamResourceType = "resourceType"
	URLParamID           = "id"
)

type ResourceController struct {
	Log             *zap.Logger
	ResourceUsecase contracts.ResourceUsecase
}

var (
	resourceControllerInstance *ResourceController
	onceResourceController     sync.Once
)

func NewResourceController(logger *zap.Logger, resourceUsecase contracts.ResourceUsecase) *ResourceController {
	onceResourceController.Do(func() {
		instance := &ResourceController{
			Log:             logger,
			ResourceUsecase: resourceUsecase,
		}
		resourceControllerInstance = instance
	})
	return resourceControllerInstance
}

func (ctrl *ResourceController) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}
	resourceType := chi.URLParam(r, URLParamResourceType)

	payload, err := ctrl.decodeResource(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	created, err := ctrl.ResourceUsecase.Create(r.Context(), principal, resourceType, payload)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	setVersionHeaders(w, created)
	utils.BuildResourceResponse(w, constvars.StatusCreated, created)
}

func (ctrl *ResourceController) Read(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}

	resource, err := ctrl.ResourceUsecase.Read(r.Context(), principal, chi.URLParam(r, URLParamResourceType), chi.URLParam(r, URLParamID))
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	w.Header().Set(constvars.HeaderETag, etagOf(resource))
	utils.BuildResourceResponse(w, constvars.StatusOK, resource)
}

func (ctrl *ResourceController) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}

	payload, err := ctrl.decodeResource(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	updated, err := ctrl.ResourceUsecase.Update(r.Context(), principal, chi.URLParam(r, URLParamResourceType), chi.URLParam(r, URLParamID), payload)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	setVersionHeaders(w, updated)
	utils.BuildResourceResponse(w, constvars.StatusOK, updated)
}

func (ctrl *ResourceController) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}

	err := ctrl.ResourceUsecase.Delete(r.Context(), principal, chi.URLParam(r, URLParamResourceType), chi.URLParam(r, URLParamID))
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	w.WriteHeader(constvars.StatusNoContent)
}

// Search only honours the first value of a repeated query parameter; a
// comma inside one value is the way to ask for alternatives.
func (ctrl *ResourceController) Search(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for key := range query {
		params[key] = query.Get(key)
	}

	results, err := ctrl.ResourceUsecase.Search(r.Context(), principal, chi.URLParam(r, URLParamResourceType), params)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildResourceResponse(w, constvars.StatusOK, responses.NewSearchBundle(results))
}

func (ctrl *ResourceController) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}

	marked, err := ctrl.ResourceUsecase.MarkNotificationRead(r.Context(), principal, chi.URLParam(r, URLParamID))
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	setVersionHeaders(w, marked)
	utils.BuildResourceResponse(w, constvars.StatusOK, marked)
}

func (ctrl *ResourceController) ResolveReference(w http.ResponseWriter, r *http.Request) {
	principal, ok := ctrl.principal(w, r)
	if !ok {
		return
	}

	reference := models.FormatReference(chi.URLParam(r, URLParamResourceType), chi.URLParam(r, URLParamID))
	resolved, err := ctrl.ResourceUsecase.ResolveReference(r.Context(), principal, reference)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, "", resolved)
}

func (ctrl *ResourceController) principal(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	principal, ok := middlewares.PrincipalFromContext(r.Context())
	if !ok {
		ctrl.Log.Error("Principal missing from context",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(r.Context())),
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return nil, false
	}
	return principal, true
}

func (ctrl *ResourceController) decodeResource(r *http.Request) (*models.Resource, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	resource, err := models.ParseResource(body)
	if err != nil {
		ctrl.Log.Error("Failed to parse request body",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(r.Context())),
			zap.Error(err),
		)
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return resource, nil
}

func etagOf(resource *models.Resource) string {
	return fmt.Sprintf(`W/"%d"`, resource.Meta.VersionID)
}

func setVersionHeaders(w http.ResponseWriter, resource *models.Resource) {
	w.Header().Set(constvars.HeaderETag, etagOf(resource))
	w.Header().Set(constvars.HeaderLocation, fmt.Sprintf("%s/_history/%d", resource.Reference().String(), resource.Meta.VersionID))
}
