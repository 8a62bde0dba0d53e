package exceptions

import (
	"fmt"
	"maternity-service/internal/pkg/constvars"
)

var (
	// Store
	ErrResourceNotFound = func(err error, resourceType, id string) *CustomError {
		return BuildNewCustomError(err, KindNotFound, constvars.ErrClientResourceNotFound, fmt.Sprintf(constvars.ErrDevResourceNotFound, resourceType, id))
	}
	ErrInvalidResourceType = func(err error, resourceType string) *CustomError {
		return BuildNewCustomError(err, KindInvalidResourceType, constvars.ErrClientResourceTypeNotSupported, fmt.Sprintf(constvars.ErrDevInvalidResourceType, resourceType))
	}
	ErrActiveFlagExists = func(err error, key string) *CustomError {
		return BuildNewCustomError(err, KindConflict, constvars.ErrClientResourceConflict, fmt.Sprintf(constvars.ErrDevActiveFlagExists, key))
	}
	ErrResourceExists = func(err error, resourceType, id string) *CustomError {
		return BuildNewCustomError(err, KindConflict, constvars.ErrClientResourceConflict, fmt.Sprintf(constvars.ErrDevResourceExists, resourceType, id))
	}
	ErrVersionConflict = func(err error, resourceType, id string) *CustomError {
		return BuildNewCustomError(err, KindConflict, constvars.ErrClientResourceConflict, fmt.Sprintf(constvars.ErrDevVersionConflict, resourceType, id))
	}

	// Validation
	ErrInputValidation = func(err error) *CustomError {
		return BuildNewCustomError(err, KindValidationFailed, FormatFirstValidationError(err), constvars.ErrDevValidationFailed)
	}
	ErrCannotParseJSON = func(err error) *CustomError {
		return BuildNewCustomError(err, KindValidationFailed, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCannotParseJSON)
	}
	ErrCannotMarshalJSON = func(err error) *CustomError {
		return BuildNewCustomError(err, KindValidationFailed, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevCannotMarshalJSON)
	}
	ErrResourceTypeMismatch = func(payloadType, resourceType string) *CustomError {
		return BuildNewCustomError(nil, KindValidationFailed, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevResourceTypeMismatch, payloadType, resourceType))
	}
	ErrInvalidReference = func(reference string) *CustomError {
		return BuildNewCustomError(nil, KindValidationFailed, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevInvalidReference, reference))
	}
	ErrNotificationImmutable = func(err error, id string) *CustomError {
		return BuildNewCustomError(err, KindValidationFailed, constvars.ErrClientNotificationImmutable, fmt.Sprintf(constvars.ErrDevNotificationImmutable, id))
	}

	// Authorization
	ErrForbiddenPermission = func(role, resourceType, action string) *CustomError {
		customErr := BuildNewCustomError(nil, KindForbidden, constvars.ErrClientNotAuthorized, fmt.Sprintf(constvars.ErrDevForbiddenPermission, role, resourceType, action))
		customErr.Reason = ReasonPermission
		return customErr
	}
	ErrForbiddenOwnership = func(identityID, resourceType string) *CustomError {
		customErr := BuildNewCustomError(nil, KindForbidden, constvars.ErrClientNotAuthorized, fmt.Sprintf(constvars.ErrDevForbiddenOwnership, identityID, resourceType))
		customErr.Reason = ReasonOwnership
		return customErr
	}
	ErrForbiddenFacility = func(principalFacility, requestedFacility string) *CustomError {
		customErr := BuildNewCustomError(nil, KindForbidden, constvars.ErrClientNotAuthorized, fmt.Sprintf(constvars.ErrDevForbiddenFacility, principalFacility, requestedFacility))
		customErr.Reason = ReasonFacility
		return customErr
	}
	ErrTokenMissing = func(err error) *CustomError {
		customErr := BuildNewCustomError(err, KindForbidden, constvars.ErrClientNotLoggedIn, constvars.ErrDevAuthTokenMissing)
		customErr.Reason = ReasonPermission
		return customErr
	}
	ErrTokenInvalidOrExpired = func(err error) *CustomError {
		customErr := BuildNewCustomError(err, KindForbidden, constvars.ErrClientNotLoggedIn, constvars.ErrDevAuthTokenInvalidOrExpired)
		customErr.Reason = ReasonPermission
		return customErr
	}
	ErrTokenUnknownRole = func(err error, role string) *CustomError {
		customErr := BuildNewCustomError(err, KindForbidden, constvars.ErrClientNotAuthorized, fmt.Sprintf(constvars.ErrDevAuthUnknownRole, role))
		customErr.Reason = ReasonPermission
		return customErr
	}

	// Mongo DB
	ErrMongoDBFindDocument = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevDBFailedToFindDocument)
	}
	ErrMongoDBInsertDocument = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevDBFailedToInsertDocument)
	}
	ErrMongoDBUpdateDocument = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevDBFailedToUpdateDocument)
	}
	ErrMongoDBDeleteDocument = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevDBFailedToDeleteDocument)
	}
	ErrMongoDBIterateDocuments = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevDBFailedToIterateDocuments)
	}

	// Redis
	ErrRedisGetNoData = func(err error, redisKey string) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, fmt.Sprintf(constvars.ErrDevRedisGetNoData, redisKey))
	}
	ErrRedisSet = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevRedisSetData)
	}
	ErrRedisDelete = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevRedisDeleteData)
	}
	ErrRedisUnlock = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevRedisUnlock)
	}

	// RabbitMQ
	ErrRabbitMQPublishMessage = func(err error, queueName string) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, fmt.Sprintf(constvars.ErrDevRabbitMQPublishMessage, queueName))
	}
	ErrRabbitMQChannel = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientDependencyUnavailable, constvars.ErrDevRabbitMQChannel)
	}

	// Default Server
	ErrServerProcess = func(err error) *CustomError {
		return BuildNewCustomError(err, KindDependencyUnavailable, constvars.ErrClientCannotProcessRequest, constvars.ErrDevServerProcess)
	}
)
