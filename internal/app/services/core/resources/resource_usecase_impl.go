package resources

import (
	"bytes"
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/search"
	"maternity-service/internal/pkg/utils"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	fieldIsRead = "isRead"
	fieldReadAt = "readAt"
)

type resourceUsecase struct {
	Store      contracts.ResourceStore
	Authorizer contracts.Authorizer
	Alerting   contracts.AlertingPipeline
	Log        *zap.Logger
	now        func() time.Time
}

func NewResourceUsecase(
	store contracts.ResourceStore,
	authorizer contracts.Authorizer,
	alerting contracts.AlertingPipeline,
	logger *zap.Logger,
) contracts.ResourceUsecase {
	return &resourceUsecase{
		Store:      store,
		Authorizer: authorizer,
		Alerting:   alerting,
		Log:        logger,
		now:        time.Now,
	}
}

func (uc *resourceUsecase) Create(ctx context.Context, principal *models.Principal, resourceType string, payload *models.Resource) (*models.Resource, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("resourceUsecase.Create called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
	)

	payload, err := preparePayload(resourceType, payload)
	if err != nil {
		return nil, err
	}

	err = uc.Authorizer.Authorize(ctx, principal, contracts.AccessRequest{
		ResourceType: resourceType,
		Action:       constvars.ActionCreate,
		ID:           payload.ID,
		Payload:      payload,
	})
	if err != nil {
		return nil, err
	}

	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	created, err := uc.Store.Create(ctx, resourceType, payload)
	if err != nil {
		uc.Log.Error("resourceUsecase.Create error from store",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingResourceTypeKey, resourceType),
			zap.Error(err),
		)
		return nil, err
	}

	uc.runAlerting(ctx, created, true)

	uc.Log.Info("resourceUsecase.Create succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, created.ID),
	)
	return created, nil
}

func (uc *resourceUsecase) Read(ctx context.Context, principal *models.Principal, resourceType, id string) (*models.Resource, error) {
	uc.Log.Info("resourceUsecase.Read called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, id),
	)

	if !search.IsSupportedType(resourceType) {
		return nil, exceptions.ErrInvalidResourceType(nil, resourceType)
	}

	request := contracts.AccessRequest{
		ResourceType: resourceType,
		Action:       constvars.ActionRead,
		ID:           id,
	}
	if err := uc.loadTarget(ctx, principal, &request); err != nil {
		return nil, err
	}
	if err := uc.Authorizer.Authorize(ctx, principal, request); err != nil {
		return nil, err
	}

	if request.Target != nil {
		return request.Target, nil
	}
	return uc.Store.Read(ctx, resourceType, id)
}

func (uc *resourceUsecase) Update(ctx context.Context, principal *models.Principal, resourceType, id string, payload *models.Resource) (*models.Resource, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("resourceUsecase.Update called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, id),
	)

	payload, err := preparePayload(resourceType, payload)
	if err != nil {
		return nil, err
	}
	payload.ID = id

	request := contracts.AccessRequest{
		ResourceType: resourceType,
		Action:       constvars.ActionUpdate,
		ID:           id,
		Payload:      payload,
	}
	if err := uc.loadTarget(ctx, principal, &request); err != nil {
		return nil, err
	}
	if err := uc.Authorizer.Authorize(ctx, principal, request); err != nil {
		return nil, err
	}

	if resourceType == constvars.ResourceCommunication && !principal.IsAdmin() {
		current := request.Target
		if current == nil {
			current, err = uc.Store.Read(ctx, resourceType, id)
			if err != nil {
				return nil, err
			}
		}
		if !onlyReadStateChanged(current, payload) {
			return nil, exceptions.ErrNotificationImmutable(nil, id)
		}
	}

	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	updated, err := uc.Store.Update(ctx, resourceType, id, payload)
	if err != nil {
		uc.Log.Error("resourceUsecase.Update error from store",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingResourceTypeKey, resourceType),
			zap.String(constvars.LoggingResourceIDKey, id),
			zap.Error(err),
		)
		return nil, err
	}

	uc.runAlerting(ctx, updated, false)

	uc.Log.Info("resourceUsecase.Update succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceIDKey, updated.ID),
		zap.Int(constvars.LoggingVersionIDKey, updated.Meta.VersionID),
	)
	return updated, nil
}

func (uc *resourceUsecase) Delete(ctx context.Context, principal *models.Principal, resourceType, id string) error {
	uc.Log.Info("resourceUsecase.Delete called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, id),
	)

	if !search.IsSupportedType(resourceType) {
		return exceptions.ErrInvalidResourceType(nil, resourceType)
	}

	request := contracts.AccessRequest{
		ResourceType: resourceType,
		Action:       constvars.ActionDelete,
		ID:           id,
	}
	if err := uc.loadTarget(ctx, principal, &request); err != nil {
		return err
	}
	if err := uc.Authorizer.Authorize(ctx, principal, request); err != nil {
		return err
	}
	return uc.Store.Delete(ctx, resourceType, id)
}

func (uc *resourceUsecase) Search(ctx context.Context, principal *models.Principal, resourceType string, params map[string]string) ([]*models.Resource, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("resourceUsecase.Search called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.Any(constvars.LoggingQueryParamsKey, params),
	)

	if !search.IsSupportedType(resourceType) {
		return nil, exceptions.ErrInvalidResourceType(nil, resourceType)
	}
	params = utils.SanitizeSearchParams(params)

	err := uc.Authorizer.Authorize(ctx, principal, contracts.AccessRequest{
		ResourceType: resourceType,
		Action:       constvars.ActionSearch,
		Params:       params,
	})
	if err != nil {
		return nil, err
	}

	results, err := uc.Store.Search(ctx, resourceType, params)
	if err != nil {
		return nil, err
	}
	results = uc.Authorizer.FilterOwned(principal, results)

	uc.Log.Info("resourceUsecase.Search succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingResponseLengthKey, len(results)),
	)
	return results, nil
}

// MarkNotificationRead is the one Communication change open to every role
// that can see the notification. Marking twice is a no-op.
func (uc *resourceUsecase) MarkNotificationRead(ctx context.Context, principal *models.Principal, id string) (*models.Resource, error) {
	uc.Log.Info("resourceUsecase.MarkNotificationRead called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceIDKey, id),
	)

	request := contracts.AccessRequest{
		ResourceType: constvars.ResourceCommunication,
		Action:       constvars.ActionUpdate,
		ID:           id,
	}
	if err := uc.loadTarget(ctx, principal, &request); err != nil {
		return nil, err
	}
	if request.Target != nil {
		request.Payload = uc.markRead(request.Target)
	}
	if err := uc.Authorizer.Authorize(ctx, principal, request); err != nil {
		return nil, err
	}

	current := request.Target
	if current == nil {
		var err error
		current, err = uc.Store.Read(ctx, constvars.ResourceCommunication, id)
		if err != nil {
			return nil, err
		}
	}
	if models.IsNotificationRead(current) {
		return current, nil
	}
	return uc.Store.Update(ctx, constvars.ResourceCommunication, id, uc.markRead(current))
}

func (uc *resourceUsecase) markRead(communication *models.Resource) *models.Resource {
	marked := communication.Clone()
	marked.Set(fieldIsRead, true)
	marked.Set(fieldReadAt, uc.now().UTC().Format(time.RFC3339))
	return marked
}

// ResolveReference never fails on a dangling reference; the caller gets an
// unresolved placeholder instead.
func (uc *resourceUsecase) ResolveReference(ctx context.Context, principal *models.Principal, reference string) (models.ResolvedReference, error) {
	ref, ok := models.ParseReference(reference)
	if !ok {
		return models.ResolvedReference{}, exceptions.ErrInvalidReference(reference)
	}
	if !search.IsSupportedType(ref.Type) {
		return models.Unresolved(ref), nil
	}

	resource, err := uc.Read(ctx, principal, ref.Type, ref.ID)
	if err != nil {
		if exceptions.IsKind(err, exceptions.KindNotFound) {
			return models.Unresolved(ref), nil
		}
		return models.ResolvedReference{}, err
	}
	return models.Resolved(resource), nil
}

// loadTarget reads the stored resource when the ownership check needs it.
// NeedsTarget only holds for a principal with the own-scoped permission, so
// a caller without any permission never learns whether the id exists.
func (uc *resourceUsecase) loadTarget(ctx context.Context, principal *models.Principal, request *contracts.AccessRequest) error {
	if !uc.Authorizer.NeedsTarget(principal, *request) {
		return nil
	}

	target, err := uc.Store.Read(ctx, request.ResourceType, request.ID)
	if err != nil {
		return err
	}
	request.Target = target
	return nil
}

func (uc *resourceUsecase) runAlerting(ctx context.Context, resource *models.Resource, isNew bool) {
	if uc.Alerting == nil || resource.ResourceType != constvars.ResourceObservation {
		return
	}
	outcome := uc.Alerting.Run(ctx, resource, isNew)
	for _, failure := range outcome.DependencyFailures {
		uc.Log.Warn("resourceUsecase alerting side effect failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingResourceIDKey, resource.ID),
			zap.Error(failure),
		)
	}
}

func preparePayload(resourceType string, payload *models.Resource) (*models.Resource, error) {
	if !search.IsSupportedType(resourceType) {
		return nil, exceptions.ErrInvalidResourceType(nil, resourceType)
	}
	if payload == nil {
		return models.NewResource(resourceType, nil), nil
	}
	if payload.ResourceType != "" && payload.ResourceType != resourceType {
		return nil, exceptions.ErrResourceTypeMismatch(payload.ResourceType, resourceType)
	}
	payload = payload.Clone()
	payload.ResourceType = resourceType
	return payload, nil
}

func onlyReadStateChanged(current, payload *models.Resource) bool {
	return bytes.Equal(encodeWithoutReadState(current), encodeWithoutReadState(payload))
}

func encodeWithoutReadState(resource *models.Resource) []byte {
	data := make(map[string]interface{}, len(resource.Data))
	for key, value := range resource.Data {
		if key == fieldIsRead || key == fieldReadAt {
			continue
		}
		data[key] = value
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return encoded
}
