package config

type InternalConfig struct {
	App          App
	Store        AppStore
	JWT          AppJWT
	Alerting     AppAlerting
	Notification AppNotification
}

type App struct {
	Env                        string
	Port                       string
	Version                    string
	Address                    string
	EndpointPrefix             string
	MaxRequests                int
	ShutdownTimeoutInSeconds   int
	MaxTimeRequestsPerSeconds  int
	RequestBodyLimitInMegabyte int
}

// AppStore selects the resource store backend.
type AppStore struct {
	// Driver is either "memory" or "mongo"
	Driver string
	// UpdateRetryLimit bounds optimistic version retries on the mongo store
	UpdateRetryLimit int
}

type AppJWT struct {
	Secret string
	Issuer string
}

type AppAlerting struct {
	// LockTTLInSeconds is the lifetime of the per (subject, condition) lock
	LockTTLInSeconds int
	// FlagSweepCronSpec defines the schedule of the stale flag sweep (e.g., "@daily")
	FlagSweepCronSpec string
	// DistributedLock toggles the redis locker; the in-process locker is used otherwise
	DistributedLock bool
}

type AppNotification struct {
	// Driver is either "rabbitmq" or "log"
	Driver                  string
	Queue                   string
	PublishTimeoutInSeconds int
}
