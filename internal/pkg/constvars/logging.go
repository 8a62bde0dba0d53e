package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingResourceTypeKey   = "resource_type"
	LoggingResourceIDKey     = "resource_id"
	LoggingVersionIDKey      = "version_id"
	LoggingQueryParamsKey    = "query_params"
	LoggingResponseLengthKey = "response_length"
	LoggingPrincipalIDKey    = "principal_id"
	LoggingRoleKey           = "role"
	LoggingActionKey         = "action"
	LoggingDecisionKey       = "decision"
	LoggingReasonKey         = "reason"
	LoggingSubjectKey        = "subject"
	LoggingConditionCodeKey  = "condition_code"
	LoggingUrgencyKey        = "urgency"
	LoggingRecipientsKey     = "recipients"
	LoggingRedisKey          = "redis_key"
	LoggingQueueNameKey      = "queue_name"
	LoggingLockValueKey      = "lock_value"
	LoggingErrorKindKey      = "error_kind"
	LoggingOperationKey      = "operation"
	LoggingSecurityEventKey  = "security_event"
	LoggingSeverityKey       = "severity"
	LoggingSweptCountKey     = "swept_count"

	LoggingLockExpirationTimeKey = "lock_expiration_time"
	LoggingLockStoredValueKey    = "lock_stored_value"
	LoggingLockExpectedValueKey  = "lock_expected_value"

	LoggingMethodKey     = "method"
	LoggingEndpointKey   = "endpoint"
	LoggingRemoteAddrKey = "remote_addr"
	LoggingUserAgentKey  = "user_agent"
	LoggingQueryKey      = "query"
	LoggingStatusCodeKey = "status_code"
	LoggingDurationKey   = "duration"
	LoggingSuccessKey    = "success"
)
