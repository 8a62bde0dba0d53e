package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required":  "is required",
	"min":       "must be at least %s items long",
	"oneof":     "must be one of [%s]",
	"reference": "must be a reference in the form Type/id",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":   true,
	"oneof": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientNotAuthorized                 = "you can't access this resource"
	ErrClientNotLoggedIn                   = "your session ended, please login again"
	ErrClientResourceNotFound              = "the requested resource was not found"
	ErrClientResourceTypeNotSupported      = "the requested resource type is not supported"
	ErrClientResourceConflict              = "the resource conflicts with an existing one"
	ErrClientDependencyUnavailable         = "a required service is temporarily unavailable"
	ErrClientNotificationImmutable         = "only the read state of a notification can be changed"
)

// Error messages for developers
const (
	ErrDevResourceNotFound          = "resource %s/%s not found"
	ErrDevInvalidResourceType       = "resource type %q is not a recognized partition"
	ErrDevValidationFailed          = "payload failed structural validation"
	ErrDevCannotParseJSON           = "cannot parse JSON"
	ErrDevCannotMarshalJSON         = "cannot marshal JSON"
	ErrDevActiveFlagExists          = "an active flag already exists for %s"
	ErrDevResourceExists            = "resource %s/%s already exists"
	ErrDevVersionConflict           = "concurrent update of %s/%s exhausted retries"
	ErrDevNotificationImmutable     = "communication %s may only change its read state"
	ErrDevResourceTypeMismatch      = "payload resourceType %q does not match %q"
	ErrDevInvalidReference          = "cannot parse reference %q"
	ErrDevForbiddenPermission       = "role %s lacks permission for %s:%s"
	ErrDevForbiddenOwnership        = "principal %s does not own the requested %s data"
	ErrDevForbiddenFacility         = "principal facility %s does not match requested facility %s"
	ErrDevAuthTokenMissing          = "authorization token missing"
	ErrDevAuthTokenInvalidOrExpired = "authorization token invalid or expired"
	ErrDevAuthUnknownRole           = "token carries unknown role %q"
	ErrDevServerProcess             = "server failed to process the request"

	// Driver messages
	ErrDevDBFailedToFindDocument     = "failed to find document"
	ErrDevDBFailedToInsertDocument   = "failed to insert document"
	ErrDevDBFailedToUpdateDocument   = "failed to update document"
	ErrDevDBFailedToDeleteDocument   = "failed to delete document"
	ErrDevDBFailedToIterateDocuments = "failed to iterate documents"
	ErrDevRedisGetNoData             = "no data found in redis for key %s"
	ErrDevRedisSetData               = "failed to set data in redis"
	ErrDevRedisDeleteData            = "failed to delete data in redis"
	ErrDevRedisUnlock                = "failed to release redis lock"
	ErrDevRabbitMQPublishMessage     = "failed to publish message to queue %s"
	ErrDevRabbitMQChannel            = "failed to open rabbitmq channel"
)
