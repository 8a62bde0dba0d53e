package routers

import (
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/delivery/http/controllers"
	"maternity-service/internal/app/delivery/http/middlewares"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/metrics"
	"maternity-service/internal/pkg/utils"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	middlewares *middlewares.Middlewares,
	m *metrics.Metrics,
	resourceController *controllers.ResourceController,
) {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "ETag", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	router.Use(middlewares.RequestIDMiddleware)
	router.Use(middlewares.Logging(middlewares.Log))
	router.Use(m.Instrument)
	router.Use(cors.Handler(corsOptions))

	if internalConfig.App.MaxRequests > 0 {
		window := time.Duration(internalConfig.App.MaxTimeRequestsPerSeconds) * time.Second
		if window <= 0 {
			window = time.Second
		}
		router.Use(httprate.LimitByIP(internalConfig.App.MaxRequests, window))
	}

	router.Use(middlewares.ErrorHandler)
	router.Use(middlewares.BodyLimit)

	router.Method(constvars.MethodGet, "/metrics", m.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.BuildSuccessResponse(w, constvars.StatusOK, "ok", nil)
	})

	basePath := path.Join("/", internalConfig.App.EndpointPrefix, internalConfig.App.Version)
	router.Route(basePath, func(r chi.Router) {
		r.Use(middlewares.Authenticate)

		r.Route("/fhir", func(r chi.Router) {
			attachResourceRoutes(r, resourceController)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/{id}/read", resourceController.MarkNotificationRead)
		})

		r.Route("/references", func(r chi.Router) {
			r.Get("/{resourceType}/{id}", resourceController.ResolveReference)
		})
	})
}
