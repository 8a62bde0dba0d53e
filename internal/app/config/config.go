package config

import (
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		MongoDB: MongoDB{
			Port:                   utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:                   utils.GetEnvString("MONGODB_HOST", "localhost"),
			Username:               utils.GetEnvString("MONGODB_USERNAME", ""),
			Password:               utils.GetEnvString("MONGODB_PASSWORD", ""),
			DbName:                 utils.GetEnvString("MONGODB_DB_NAME", "maternity"),
			ConnectTimeoutInSecond: utils.GetEnvInt("MONGODB_CONNECT_TIMEOUT_IN_SECOND", 10),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
			DB:       utils.GetEnvInt("REDIS_DB", 0),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "guest"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", "development"),
			Port:                       utils.GetEnvString("APP_PORT", "8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "/api"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 100),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT_IN_SECONDS", 10),
			MaxTimeRequestsPerSeconds:  utils.GetEnvInt("APP_MAX_TIME_REQUESTS_PER_SECONDS", 60),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 2),
		},
		Store: AppStore{
			Driver:           utils.GetEnvString("STORE_DRIVER", constvars.StoreDriverMemory),
			UpdateRetryLimit: utils.GetEnvInt("STORE_UPDATE_RETRY_LIMIT", 5),
		},
		JWT: AppJWT{
			Secret: utils.GetEnvString("JWT_SECRET", ""),
			Issuer: utils.GetEnvString("JWT_ISSUER", ""),
		},
		Alerting: AppAlerting{
			LockTTLInSeconds:  utils.GetEnvInt("ALERTING_LOCK_TTL_IN_SECONDS", 10),
			FlagSweepCronSpec: utils.GetEnvString("ALERTING_FLAG_SWEEP_CRON", "@daily"),
			DistributedLock:   utils.GetEnvBool("ALERTING_DISTRIBUTED_LOCK", false),
		},
		Notification: AppNotification{
			Driver:                  utils.GetEnvString("NOTIFICATION_DRIVER", constvars.NotificationDriverLog),
			Queue:                   utils.GetEnvString("NOTIFICATION_QUEUE", "clinical-notifications"),
			PublishTimeoutInSeconds: utils.GetEnvInt("NOTIFICATION_PUBLISH_TIMEOUT_IN_SECONDS", 5),
		},
	}
}
