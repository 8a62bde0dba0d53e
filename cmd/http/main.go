package main

import (
	"context"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/delivery/http/controllers"
	"maternity-service/internal/app/delivery/http/middlewares"
	"maternity-service/internal/app/delivery/http/routers"
	"maternity-service/internal/app/drivers/database"
	"maternity-service/internal/app/drivers/logger"
	"maternity-service/internal/app/drivers/messaging"
	"maternity-service/internal/app/services/core/alerting"
	"maternity-service/internal/app/services/core/authorization"
	"maternity-service/internal/app/services/core/resources"
	"maternity-service/internal/app/services/shared/audit"
	"maternity-service/internal/app/services/shared/locker"
	"maternity-service/internal/app/services/shared/notifier"
	"maternity-service/internal/app/services/shared/redis"
	"maternity-service/internal/app/services/shared/scheduler"
	"maternity-service/internal/app/services/store/memory"
	"maternity-service/internal/app/services/store/mongodb"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewZapLogger(driverConfig, internalConfig)
	log.Info("Starting maternity service",
		zap.String("env", internalConfig.App.Env),
		zap.String("store_driver", internalConfig.Store.Driver),
		zap.String("notification_driver", internalConfig.Notification.Driver),
	)

	bootstrap := &config.Bootstrap{
		Router:         chi.NewRouter(),
		Logger:         log,
		InternalConfig: internalConfig,
		DriverConfig:   driverConfig,
	}
	if internalConfig.Store.Driver == constvars.StoreDriverMongo {
		bootstrap.Mongo = database.NewMongoDB(driverConfig)
	}
	if internalConfig.Alerting.DistributedLock {
		bootstrap.Redis = database.NewRedisClient(driverConfig)
	}
	if internalConfig.Notification.Driver == constvars.NotificationDriverRabbitMQ {
		bootstrap.RabbitMQ = messaging.NewRabbitMQ(driverConfig)
	}

	if err := bootstrapingTheApp(bootstrap); err != nil {
		log.Fatal("Failed to bootstrap the app", zap.Error(err))
	}

	server := &http.Server{
		Addr:    ":" + internalConfig.App.Port,
		Handler: bootstrap.Router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Info("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to release resources", zap.Error(err))
	}

	log.Info("Server exiting")
}

func bootstrapingTheApp(bootstrap *config.Bootstrap) error {
	cfg := bootstrap.InternalConfig
	log := bootstrap.Logger
	m := metrics.New()

	// Store
	var store contracts.ResourceStore
	switch cfg.Store.Driver {
	case constvars.StoreDriverMongo:
		indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		names, err := mongodb.EnsureIndexes(indexCtx, bootstrap.Mongo.Database(bootstrap.DriverConfig.MongoDB.DbName), constvars.MongoCollectionResources)
		cancel()
		if err != nil {
			return err
		}
		log.Info("Resource indexes ensured", zap.Strings("indexes", names))
		store = mongodb.NewResourceMongoStore(bootstrap.Mongo, bootstrap.DriverConfig.MongoDB.DbName, cfg.Store.UpdateRetryLimit, log, m)
	default:
		store = memory.NewResourceMemoryStore(log, m)
	}

	// Locker
	var lockerService contracts.LockerService
	if bootstrap.Redis != nil {
		lockerService = locker.NewLockService(redis.NewRedisRepository(bootstrap.Redis), log)
	} else {
		lockerService = locker.NewLocalLockService()
	}

	// Notifications
	var publisher contracts.NotificationPublisher
	if bootstrap.RabbitMQ != nil {
		rabbitPublisher, err := notifier.NewRabbitMQPublisher(
			bootstrap.RabbitMQ,
			log,
			cfg.Notification.Queue,
			time.Duration(cfg.Notification.PublishTimeoutInSeconds)*time.Second,
		)
		if err != nil {
			return err
		}
		publisher = rabbitPublisher
	} else {
		publisher = notifier.NewLogPublisher(log)
	}

	// Authorization
	authorizer := authorization.NewAuthorizationService(audit.NewAuditRecorder(log, m), log)

	// Alerting
	pipeline := alerting.NewAlertingPipeline(
		store,
		lockerService,
		publisher,
		log,
		m,
		time.Duration(cfg.Alerting.LockTTLInSeconds)*time.Second,
	)

	sweepWorker := scheduler.NewFlagSweepWorker(log, lockerService, alerting.NewFlagSweeper(store, log, m), cfg.Alerting.FlagSweepCronSpec)
	sweepWorker.Start(context.Background())
	bootstrap.SchedulerStop = sweepWorker.Stop

	// Resources
	resourceUsecase := resources.NewResourceUsecase(store, authorizer, pipeline, log)
	resourceController := controllers.NewResourceController(log, resourceUsecase)

	middlewares := middlewares.NewMiddlewares(log, cfg)

	routers.SetupRoutes(bootstrap.Router, cfg, middlewares, m, resourceController)
	return nil
}
