package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_PRINCIPAL_KEY            ContextKey = "principal"
)

const (
	REQUEST_ID_PREFIX = "MTRN_SVC_"
)

const (
	RolePatient = "patient"
	RoleNurse   = "nurse"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSearch = "search"
)

const (
	PermissionScopeAll = "all"
	PermissionScopeOwn = "own"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverMongo  = "mongo"
)

const (
	NotificationDriverLog      = "log"
	NotificationDriverRabbitMQ = "rabbitmq"
)

const (
	AppEnvDevelopment = "development"
	AppEnvProduction  = "production"
)
